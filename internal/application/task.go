package app

import (
	"context"
	"sync"
)

// Task результат асинхронной операции (загрузки модели) с единственным исходом.
type Task struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

func (t *Task) finish(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// Done закрывается, когда операция завершена.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err возвращает результат операции; nil, пока операция не завершена.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait ждёт завершения операции или отмены ctx.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
