package database

import (
	"time"

	"github.com/deppfellow/go-users-api/internal/config"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MySQLDSN builds a go-sql-driver DSN for host. parseTime and a UTC
// location are always set so DATETIME columns scan into time.Time.
func MySQLDSN(cfg config.DatabaseConfig, host string) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = hostWithPort(host, cfg.Port)
	c.DBName = cfg.Name
	c.ParseTime = true
	c.Loc = time.UTC
	return c.FormatDSN()
}

// DATETIME(6) keeps the microseconds NowFunc produces.
var mysqlDatetimePrecision = 6

func mysqlDialector(dsn string) gorm.Dialector {
	return gormmysql.New(gormmysql.Config{
		DSN:                      dsn,
		DefaultDatetimePrecision: &mysqlDatetimePrecision,
	})
}

func (db *Database) openMySQL(cfg *config.Config, gormConfig *gorm.Config) error {
	orm, err := gorm.Open(mysqlDialector(MySQLDSN(cfg.Database, cfg.Database.Host)), gormConfig)
	if err != nil {
		return errors.WithStack(err)
	}

	sqlDB, err := orm.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	applyPoolSettings(sqlDB, cfg.Database)

	db.ORM = orm
	db.SQL = sqlDB
	return nil
}
