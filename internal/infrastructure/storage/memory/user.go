package memory

import (
	"context"
	"sync"

	"greenkeep/internal/domain/user"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]user.User // email -> user
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]user.User)}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.Email]; ok {
		return user.ErrEmailTaken
	}
	r.users[u.Email] = *u
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}
