package logger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// GormLogger adapts gorm's logger.Interface to zerolog.
//
// Statements are written through the request logger found in the context
// (zerolog.Ctx) so SQL lines carry the request id; calls made outside a
// request fall back to the base logger.
type GormLogger struct {
	base          zerolog.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewGormLogger maps the zerolog level onto gorm's coarser levels:
// debug and below trace every statement, info and warn report slow
// statements and errors, error reports errors only.
func NewGormLogger(base zerolog.Logger, slowThreshold time.Duration) *GormLogger {
	level := gormlogger.Warn
	switch {
	case base.GetLevel() <= zerolog.DebugLevel:
		level = gormlogger.Info
	case base.GetLevel() >= zerolog.ErrorLevel:
		level = gormlogger.Error
	}

	return &GormLogger{
		base:          base.With().Str("component", "gorm").Logger(),
		level:         level,
		slowThreshold: slowThreshold,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.from(ctx).Info().Str("caller", utils.FileWithLineNum()).Msgf(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.from(ctx).Warn().Str("caller", utils.FileWithLineNum()).Msgf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.from(ctx).Error().Str("caller", utils.FileWithLineNum()).Msgf(msg, data...)
	}
}

// Trace logs one executed statement. Record-not-found is expected control
// flow for lookups and is never reported as an error.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	log := l.from(ctx)

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		log.Error().
			Err(err).
			Str("caller", utils.FileWithLineNum()).
			Dur("elapsed", elapsed).
			Int64("rows", rows).
			Str("sql", sql).
			Msg("sql statement failed")
	case l.slowThreshold != 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		log.Warn().
			Str("caller", utils.FileWithLineNum()).
			Dur("elapsed", elapsed).
			Dur("threshold", l.slowThreshold).
			Int64("rows", rows).
			Str("sql", sql).
			Msg("slow sql statement")
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		log.Debug().
			Str("caller", utils.FileWithLineNum()).
			Dur("elapsed", elapsed).
			Int64("rows", rows).
			Str("sql", sql).
			Msg("sql statement")
	}
}

func (l *GormLogger) from(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if log := zerolog.Ctx(ctx); log.GetLevel() != zerolog.Disabled {
			return log
		}
	}
	return &l.base
}
