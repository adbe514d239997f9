package app

import (
	"context"

	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) { u.SetState(state) })
}

// BeginCheck выбирает адаптер и ждёт фото.
func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64, kind entity.AdapterKind) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) {
		u.Kind = kind
		u.SetState(entity.StateAwaitingPhoto)
	})
}

// SetThreshold сохраняет порог пользователя в процентах.
func (s *UserService) SetThreshold(ctx context.Context, userID, chatID int64, threshold int) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) { u.SetThreshold(threshold) })
}

// ResetThreshold возвращает пользователю порог адаптера.
func (s *UserService) ResetThreshold(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.update(ctx, userID, chatID, func(u *entity.User) { u.ResetThreshold() })
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

func (s *UserService) update(ctx context.Context, userID, chatID int64, fn func(*entity.User)) (*entity.User, error) {
	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	fn(user)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
