// Package storage хранит состояние пользователей и файлы моделей.
package storage

import (
	"context"
	"errors"
	"sync"

	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище пользователей бота
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт пустое хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает пользователя по ID; нового создаёт с адаптером по умолчанию
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.RLock()
	user, ok := r.users[userID]
	r.mu.RUnlock()
	if ok {
		return user, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Пользователя мог создать параллельный запрос.
	if user, ok := r.users[userID]; ok {
		return user, nil
	}
	user = entity.NewUser(userID, chatID)
	r.users[userID] = user
	return user, nil
}

// Save сохраняет пользователя
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	r.mu.Lock()
	r.users[user.ID] = user
	r.mu.Unlock()
	return nil
}

// UpdateState меняет состояние существующего пользователя
func (r *MemoryUserRepository) UpdateState(ctx context.Context, userID int64, state entity.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[userID]; ok {
		user.SetState(state)
	}
	return nil
}

var _ port.UserRepository = (*MemoryUserRepository)(nil)
