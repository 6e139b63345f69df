package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/thewiin/aws-saas-etl/internal/domain/entity"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type UserRepo interface {
	Create(ctx context.Context, user *entity.User) error
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

type UserUseCase struct {
	UserRepo    UserRepo
	JWTSecret   []byte
	TokenExpiry time.Duration
}

func NewUserUseCase(repo UserRepo, jwtSecret []byte, tokenExpiry time.Duration) *UserUseCase {
	return &UserUseCase{
		UserRepo:    repo,
		JWTSecret:   jwtSecret,
		TokenExpiry: tokenExpiry,
	}
}

func (u *UserUseCase) Register(ctx context.Context, username, password string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username required")
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("password too short (min %d)", minPasswordLen)
	}

	if _, err := u.UserRepo.GetByUsername(ctx, username); err == nil {
		return nil, entity.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		UserID:       uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
	}
	if err := u.UserRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and issues a signed token carrying the user
// id. Lookup and compare failures collapse into one error so usernames cannot
// be probed.
func (u *UserUseCase) Login(ctx context.Context, username, password string) (string, error) {
	user, err := u.UserRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", entity.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", entity.ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.UserID,
		"iat":     now.Unix(),
		"exp":     now.Add(u.TokenExpiry).Unix(),
	})

	signed, err := token.SignedString(u.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
