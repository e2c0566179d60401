package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-academy/app/entity"
)

var ErrDuplicateEmail = errors.New("email already registered")

// UserStore is the contract shared by every backend in this package.
type UserStore interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByVerificationHash(ctx context.Context, hash string, now time.Time) (*entity.User, error)
	FindByResetHash(ctx context.Context, hash string, now time.Time) (*entity.User, error)
	// UpdateCredentials writes change to user id only while guard still
	// holds. It reports false when no such user matched.
	UpdateCredentials(ctx context.Context, id string, guard entity.CredentialGuard, change entity.CredentialChange) (bool, error)
	UpdateProfile(ctx context.Context, id string, update entity.ProfileUpdate) (*entity.User, error)
	ClearRefreshToken(ctx context.Context, id string) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Ping(ctx context.Context) error
}

var (
	_ UserStore = (*MemoryUserRepository)(nil)
	_ UserStore = (*MySQLUserRepository)(nil)
	_ UserStore = (*MongoUserRepository)(nil)
)
