package repository

import (
	"context"
	"fmt"

	"github.com/deppfellow/go-users-api/internal/model"
	"github.com/deppfellow/go-users-api/internal/sqlerr"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// StorageError is the only error returned by UserRepository. Err is the
// driver error, classified as *sqlerr.Error when the driver reported a
// known code.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("user repository %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: errors.WithStack(sqlerr.Normalize(err))}
}

// UserRepository is the gorm-backed store for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindAll returns every user ordered by id. An empty table yields an
// empty, non-nil slice.
func (r *UserRepository) FindAll(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0)
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, storageError("find_all", err)
	}
	return users, nil
}

// FindByID looks a user up by primary key. A missing row is reported
// through found, not as an error.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, bool, error) {
	return r.findByID(ctx, r.db, "find_by_id", id)
}

func (r *UserRepository) findByID(ctx context.Context, tx *gorm.DB, op string, id int64) (model.User, bool, error) {
	var user model.User
	err := tx.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, storageError(op, err)
	}
	return user, true, nil
}

// Create inserts a user. gorm stamps created_at and updated_at with the
// same NowFunc reading.
func (r *UserRepository) Create(ctx context.Context, params model.CreateUserParams) (model.User, error) {
	user := model.User{
		Name:  params.Name,
		Email: params.Email,
		Age:   params.Age,
	}
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		return model.User{}, storageError("create", err)
	}
	return user, nil
}

// Update writes the non-nil fields of params, always refreshing
// updated_at, and returns the row as stored afterwards.
func (r *UserRepository) Update(ctx context.Context, id int64, params model.UpdateUserParams) (model.User, bool, error) {
	columns := map[string]any{
		"updated_at": r.db.NowFunc(),
	}
	if params.Name != nil {
		columns["name"] = *params.Name
	}
	if params.Email != nil {
		columns["email"] = *params.Email
	}
	if params.Age != nil {
		columns["age"] = *params.Age
	}

	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(columns).Error
	if err != nil {
		return model.User{}, false, storageError("update", err)
	}

	// Read back from the primary so a lagging replica cannot hide the write.
	return r.findByID(ctx, r.db.Clauses(dbresolver.Write), "update", id)
}

// Delete removes the row with id and reports whether one existed.
func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if result.Error != nil {
		return false, storageError("delete", result.Error)
	}
	return result.RowsAffected > 0, nil
}
