package port

import (
	"context"

	"vision-nodes/internal/domain/entity"
)

// UserRepository хранилище пользователей бота: выбранный адаптер, порог, состояние диалога
type UserRepository interface {
	// Get возвращает пользователя по ID; нового создаёт с адаптером по умолчанию
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет состояние пользователя
	Save(ctx context.Context, user *entity.User) error

	// UpdateState обновляет состояние пользователя
	UpdateState(ctx context.Context, userID int64, state entity.UserState) error
}
