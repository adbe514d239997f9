package telegram

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "vision-nodes/internal/application"
	"vision-nodes/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я распознаю, что изображено на фотографиях.

📸 Выберите режим и отправьте фото.

📋 Команды:
/classify — классификация изображения
/detect — поиск объектов
/pose — поиск поз людей
/predict — выход произвольной модели
/threshold N — порог уверенности в процентах
/status — состояние моделей
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Выберите режим: /classify, /detect, /pose или /predict
2️⃣ Отправьте фото
3️⃣ Получите список найденного с уверенностью

🎚 /threshold N — показывать только результаты с уверенностью не ниже N% (0–100).
/threshold без числа сбрасывает порог к значению модели.

📋 Команды:
/status — состояние моделей
/cancel — отменить операцию`

	msgAwaitingPhoto   = "📸 Режим %s. Отправьте фото."
	msgCancelled       = "❌ Операция отменена. Выберите режим и отправьте фото."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте другое фото."
	msgAdapterDisabled = "🚫 Режим %s выключен на этом сервере."
	msgThresholdSet    = "🎚 Порог: %d%%."
	msgThresholdReset  = "🎚 Порог сброшен к значению модели."
	msgThresholdBad    = "❓ Укажите порог числом от 0 до 100, например: /threshold 60"
)

// Команды выбора режима.
var kindCommands = map[string]entity.AdapterKind{
	"classify": entity.KindClassifier,
	"detect":   entity.KindDetector,
	"pose":     entity.KindPose,
	"predict":  entity.KindPredictor,
}

// Handler адаптер, принимающий входные сообщения.
type Handler interface {
	HandleInput(ctx context.Context, msg *entity.Message) (*entity.Message, error)
	Status() entity.Status
}

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	sender   Sender
	users    *app.UserService
	adapters map[entity.AdapterKind]Handler
	client   *http.Client
}

// Connect авторизуется в Telegram.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", api.Self.UserName)
	return api, nil
}

// NewBot создаёт бота поверх авторизованного API
func NewBot(api *tgbotapi.BotAPI, users *app.UserService, adapters map[entity.AdapterKind]Handler) *Bot {
	return &Bot{
		api:      api,
		sender:   api,
		users:    users,
		adapters: adapters,
		client:   &http.Client{Timeout: time.Minute},
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.Printf("Error getting user: %v", err)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID
	command := msg.Command()

	if kind, ok := kindCommands[command]; ok {
		if _, enabled := b.adapters[kind]; !enabled {
			b.sendMessage(chatID, fmt.Sprintf(msgAdapterDisabled, kind))
			return
		}
		if _, err := b.users.BeginCheck(ctx, user.ID, chatID, kind); err != nil {
			log.Printf("Error saving user: %v", err)
		}
		b.sendMessage(chatID, fmt.Sprintf(msgAwaitingPhoto, kind))
		return
	}

	switch command {
	case "start":
		if _, err := b.users.Cancel(ctx, user.ID, chatID); err != nil {
			log.Printf("Error saving user: %v", err)
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "threshold":
		b.handleThreshold(ctx, msg, user)

	case "status":
		b.sendMessage(chatID, b.statusText())

	case "cancel":
		if _, err := b.users.Cancel(ctx, user.ID, chatID); err != nil {
			log.Printf("Error saving user: %v", err)
		}
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) handleThreshold(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		if _, err := b.users.ResetThreshold(ctx, user.ID, msg.Chat.ID); err != nil {
			log.Printf("Error saving user: %v", err)
		}
		b.sendMessage(msg.Chat.ID, msgThresholdReset)
		return
	}

	n, err := strconv.Atoi(strings.TrimSuffix(arg, "%"))
	if err != nil || n < 0 || n > 100 {
		b.sendMessage(msg.Chat.ID, msgThresholdBad)
		return
	}
	if _, err := b.users.SetThreshold(ctx, user.ID, msg.Chat.ID, n); err != nil {
		log.Printf("Error saving user: %v", err)
	}
	b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgThresholdSet, n))
}

func (b *Bot) statusText() string {
	var sb strings.Builder
	sb.WriteString("🧠 Модели:")
	for _, kind := range entity.Kinds {
		h, ok := b.adapters[kind]
		if !ok {
			continue
		}
		status := h.Status()
		fmt.Fprintf(&sb, "\n• %s — %s", kind, status.Presentation().Text)
		if status.IsFailure() {
			sb.WriteString(" ⚠️")
		}
	}
	return sb.String()
}

// handlePhoto передаёт фото выбранному адаптеру; ответ отправляет Responder
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	handler, ok := b.adapters[user.Kind]
	if !ok {
		b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgAdapterDisabled, user.Kind))
		return
	}

	if _, err := b.users.SetState(ctx, user.ID, msg.Chat.ID, entity.StateProcessing); err != nil {
		log.Printf("Error saving user: %v", err)
	}
	defer func() {
		if _, err := b.users.SetState(ctx, user.ID, msg.Chat.ID, entity.StateMainMenu); err != nil {
			log.Printf("Error saving user: %v", err)
		}
	}()

	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		log.Printf("Error downloading photo: %v", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	log.Printf("Received image from %d: %d bytes, adapter %s", user.ID, len(imageData), user.Kind)

	// Ошибку и результат в чат отправляет хост адаптера.
	_, _ = handler.HandleInput(ctx, newInput(imageData, msg.Chat.ID, user))
}

// newInput собирает входное сообщение адаптера из фото пользователя.
func newInput(image []byte, chatID int64, user *entity.User) *entity.Message {
	in := entity.NewMessage(image)
	in.Meta = map[string]string{MetaChatID: strconv.FormatInt(chatID, 10)}
	if user.Threshold != nil {
		in.Threshold = *user.Threshold
	}
	return in
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	sendText(b.sender, chatID, text)
}
