package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingPhoto UserState = "awaiting_photo" // Ожидание фото
	StateProcessing    UserState = "processing"     // Обработка изображения
)

// User представляет пользователя бота
type User struct {
	ID        int64       // Telegram User ID
	ChatID    int64       // Telegram Chat ID
	State     UserState   // Текущее состояние пользователя
	Kind      AdapterKind // Выбранный адаптер
	Threshold *int        // Порог пользователя; nil означает порог адаптера
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
		Kind:   KindDetector,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// SetThreshold задаёт порог пользователя в процентах.
func (u *User) SetThreshold(threshold int) {
	t := ClampThreshold(threshold)
	u.Threshold = &t
}

// ResetThreshold сбрасывает порог пользователя.
func (u *User) ResetThreshold() {
	u.Threshold = nil
}
