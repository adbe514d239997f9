package tensor

import (
	"errors"
	"io"
	"sync"
)

// CloserFunc адаптирует функцию освобождения к io.Closer.
type CloserFunc func() error

// Close вызывает функцию.
func (f CloserFunc) Close() error {
	return f()
}

// Scope собирает ресурсы запроса и освобождает их разом.
// Используется как `scope := tensor.NewScope(); defer scope.Close()`.
type Scope struct {
	mu     sync.Mutex
	items  []io.Closer
	closed bool
}

// NewScope создаёт пустую область.
func NewScope() *Scope {
	return &Scope{}
}

// Add регистрирует ресурс. Если область уже закрыта, ресурс освобождается сразу.
func (s *Scope) Add(c io.Closer) {
	if c == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = c.Close()
		return
	}
	s.items = append(s.items, c)
	s.mu.Unlock()
}

// Len возвращает число ещё не освобождённых ресурсов.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Close освобождает ресурсы в обратном порядке регистрации.
func (s *Scope) Close() error {
	s.mu.Lock()
	items := s.items
	s.items = nil
	s.closed = true
	s.mu.Unlock()

	var errs []error
	for i := len(items) - 1; i >= 0; i-- {
		if err := items[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Track регистрирует v в области и возвращает его же.
func Track[T io.Closer](s *Scope, v T) T {
	s.Add(v)
	return v
}
