package app

import (
	"sync"

	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
)

// StatusReporter передаёт хосту переходы состояния адаптера.
// После StatusClose дальнейшие переходы игнорируются.
type StatusReporter struct {
	host    port.Host
	mu      sync.Mutex
	current entity.Status
	closed  bool
}

// NewStatusReporter создаёт репортёр для хоста.
func NewStatusReporter(host port.Host) *StatusReporter {
	return &StatusReporter{host: host}
}

// Report фиксирует новое состояние и отправляет его отображение хосту.
func (r *StatusReporter) Report(status entity.Status) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.current = status
	if status == entity.StatusClose {
		r.closed = true
	}
	r.mu.Unlock()

	r.host.Status(status.Presentation())
}

// Current возвращает последнее отправленное состояние.
func (r *StatusReporter) Current() entity.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
