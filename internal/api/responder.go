package telegram

import (
	"errors"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
)

// MetaChatID ключ Meta с ID чата, куда отправить ответ.
const MetaChatID = "chat_id"

const (
	msgModelNotReady = "⏳ Модель ещё загружается, попробуйте через минуту."
	msgBadImage      = "⚠️ Не удалось прочитать изображение. Отправьте фото в JPEG или PNG."
	msgInferFailed   = "⚠️ Модель не смогла обработать изображение. Попробуйте другое фото."
)

// Sender отправляет сообщения в Telegram; *tgbotapi.BotAPI его реализует.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Responder хост адаптера для бота: результаты и ошибки уходят в чат
// из Meta входного сообщения, статусы пишутся в лог.
type Responder struct {
	sender Sender
	kind   entity.AdapterKind
}

// NewResponder создаёт хост для адаптера kind.
func NewResponder(sender Sender, kind entity.AdapterKind) *Responder {
	return &Responder{sender: sender, kind: kind}
}

var _ port.Host = (*Responder)(nil)

func (r *Responder) Status(status entity.NodeStatus) {
	if status.Text == "" {
		return
	}
	log.Printf("%s adapter status: %s", r.kind, status.Text)
}

func (r *Responder) Error(err error, msg *entity.Message) {
	chatID, ok := chatOf(msg)
	if !ok {
		log.Printf("%s adapter error: %v", r.kind, err)
		return
	}
	sendText(r.sender, chatID, errorText(err))
}

func (r *Responder) Send(msg *entity.Message) {
	chatID, ok := chatOf(msg)
	if !ok {
		log.Printf("%s adapter: output %s has no chat", r.kind, msg.ID)
		return
	}
	sendText(r.sender, chatID, FormatOutput(r.kind, msg))
}

func chatOf(msg *entity.Message) (int64, bool) {
	if msg == nil {
		return 0, false
	}
	raw, ok := msg.Meta[MetaChatID]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func errorText(err error) string {
	switch {
	case errors.Is(err, entity.ErrModelNotReady):
		return msgModelNotReady
	case errors.Is(err, entity.ErrDecode):
		return msgBadImage
	case errors.Is(err, entity.ErrInference):
		return msgInferFailed
	default:
		return msgProcessingError
	}
}

func sendText(sender Sender, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := sender.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
