package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vibast-solutions/ms-go-academy/app/entity"
)

type memoryTxKey struct{}

// MemoryUserRepository keeps users in process memory. It backs local
// development runs and the service tests.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*entity.User
	now   func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]*entity.User),
		now:   time.Now,
	}
}

// lock acquires the mutex unless ctx already runs inside this repository's
// transaction, in which case the lock is held by WithinTransaction.
func (r *MemoryUserRepository) lock(ctx context.Context) func() {
	if owner, ok := ctx.Value(memoryTxKey{}).(*MemoryUserRepository); ok && owner == r {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *MemoryUserRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	unlock := r.lock(ctx)
	defer unlock()

	snapshot := make(map[string]*entity.User, len(r.users))
	for id, user := range r.users {
		snapshot[id] = cloneUser(user)
	}

	if err := fn(context.WithValue(ctx, memoryTxKey{}, r)); err != nil {
		r.users = snapshot
		return err
	}
	return nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *entity.User) error {
	defer r.lock(ctx)()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, func(u *entity.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	defer r.lock(ctx)()

	if user, ok := r.users[id]; ok {
		return cloneUser(user), nil
	}
	return nil, nil
}

func (r *MemoryUserRepository) FindByVerificationHash(ctx context.Context, hash string, now time.Time) (*entity.User, error) {
	return r.findOne(ctx, func(u *entity.User) bool {
		return u.EmailVerification.Live(now) && u.EmailVerification.Hash == hash
	})
}

func (r *MemoryUserRepository) FindByResetHash(ctx context.Context, hash string, now time.Time) (*entity.User, error) {
	return r.findOne(ctx, func(u *entity.User) bool {
		return u.PasswordReset.Live(now) && u.PasswordReset.Hash == hash
	})
}

func (r *MemoryUserRepository) UpdateCredentials(ctx context.Context, id string, guard entity.CredentialGuard, change entity.CredentialChange) (bool, error) {
	defer r.lock(ctx)()

	user, ok := r.users[id]
	if !ok || !guard.Matches(user) {
		return false, nil
	}

	change.Apply(user)
	user.UpdatedAt = r.now()
	return true, nil
}

func (r *MemoryUserRepository) UpdateProfile(ctx context.Context, id string, update entity.ProfileUpdate) (*entity.User, error) {
	defer r.lock(ctx)()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}

	update.Apply(user)
	user.UpdatedAt = r.now()
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	defer r.lock(ctx)()

	if user, ok := r.users[id]; ok {
		user.RefreshTokenHash = ""
		user.UpdatedAt = r.now()
	}
	return nil
}

func (r *MemoryUserRepository) Ping(_ context.Context) error {
	return nil
}

// Count returns the number of stored users.
func (r *MemoryUserRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func (r *MemoryUserRepository) findOne(ctx context.Context, match func(*entity.User) bool) (*entity.User, error) {
	defer r.lock(ctx)()

	for _, user := range r.users {
		if match(user) {
			return cloneUser(user), nil
		}
	}
	return nil, nil
}

func cloneUser(user *entity.User) *entity.User {
	clone := *user
	if user.EmailVerification != nil {
		token := *user.EmailVerification
		clone.EmailVerification = &token
	}
	if user.PasswordReset != nil {
		token := *user.PasswordReset
		clone.PasswordReset = &token
	}
	return &clone
}
