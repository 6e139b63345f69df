package psql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thewiin/aws-saas-etl/internal/domain/entity"
	"gorm.io/gorm"
)

type GormUserRepo struct {
	DB *gorm.DB
}

func NewGormUserRepo(db *gorm.DB) *GormUserRepo {
	return &GormUserRepo{DB: db}
}

func (r *GormUserRepo) Create(ctx context.Context, user *entity.User) error {
	if err := r.DB.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return entity.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *GormUserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	user := &entity.User{}
	if err := r.DB.WithContext(ctx).First(user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entity.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func isUniqueConstraintError(err error) bool {
	s := err.Error()
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}
