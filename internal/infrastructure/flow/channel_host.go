// Package flow встраивает адаптеры в поток сообщений на каналах.
package flow

import (
	"context"
	"log"
	"sync"

	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
)

// ErrorEvent ошибка адаптера; Msg равен nil для ошибок загрузки.
type ErrorEvent struct {
	Err error
	Msg *entity.Message
}

// ChannelHost публикует статусы, ошибки и выходные сообщения в каналы.
// Статусы только для отображения: при переполнении буфера они теряются.
// Ошибки и сообщения блокируют отправителя до чтения или Close.
type ChannelHost struct {
	name     string
	statuses chan entity.NodeStatus
	errs     chan ErrorEvent
	outputs  chan *entity.Message

	done      chan struct{}
	closeOnce sync.Once
}

// NewChannelHost создаёт хост с буферами размера buffer.
func NewChannelHost(name string, buffer int) *ChannelHost {
	if buffer < 0 {
		buffer = 0
	}
	return &ChannelHost{
		name:     name,
		statuses: make(chan entity.NodeStatus, buffer),
		errs:     make(chan ErrorEvent, buffer),
		outputs:  make(chan *entity.Message, buffer),
		done:     make(chan struct{}),
	}
}

var _ port.Host = (*ChannelHost)(nil)

func (h *ChannelHost) Statuses() <-chan entity.NodeStatus { return h.statuses }
func (h *ChannelHost) Errors() <-chan ErrorEvent          { return h.errs }
func (h *ChannelHost) Outputs() <-chan *entity.Message    { return h.outputs }

// Status публикует статус без блокировки.
func (h *ChannelHost) Status(status entity.NodeStatus) {
	select {
	case <-h.done:
	case h.statuses <- status:
	default:
		log.Printf("flow %s: status %q dropped", h.name, status.Text)
	}
}

// Error публикует ошибку.
func (h *ChannelHost) Error(err error, msg *entity.Message) {
	select {
	case <-h.done:
	case h.errs <- ErrorEvent{Err: err, Msg: msg}:
	}
}

// Send публикует выходное сообщение.
func (h *ChannelHost) Send(msg *entity.Message) {
	select {
	case <-h.done:
	case h.outputs <- msg:
	}
}

// Close отпускает заблокированных отправителей. Каналы не закрываются.
func (h *ChannelHost) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Node узел потока, обрабатывающий входные сообщения.
type Node interface {
	HandleInput(ctx context.Context, msg *entity.Message) (*entity.Message, error)
}

// Run передаёт сообщения из in в узел по одному, пока in не закрыт или
// ctx не отменён. Результаты и ошибки узел сам отдаёт своему хосту.
func Run(ctx context.Context, node Node, in <-chan *entity.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			_, _ = node.HandleInput(ctx, msg)
		}
	}
}
