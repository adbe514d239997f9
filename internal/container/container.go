package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vision-nodes/config"
	app "vision-nodes/internal/application"
	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
	"vision-nodes/internal/infrastructure/onnx"
	"vision-nodes/internal/infrastructure/storage"
	"vision-nodes/internal/infrastructure/vision"
)

// HostFactory создаёт хост для адаптера заданного типа.
type HostFactory func(kind entity.AdapterKind) port.Host

type Container struct {
	UserService *app.UserService
	Adapters    map[entity.AdapterKind]*app.Adapter

	// order порядок включённых адаптеров из конфигурации.
	order []entity.AdapterKind
}

// Backend реализации портов зрения и хранилища моделей.
type Backend struct {
	Store  port.ModelStore
	Loader port.ModelLoader
	Imager port.Imager
}

// DefaultBackend собирает бэкенд из конфигурации: OpenCV (с тегом gocv)
// или чистый Go, предиктор на onnxruntime, модели из каталога и по URL.
func DefaultBackend(cfg *config.Config) Backend {
	return Backend{
		Store:  storage.NewFileModelStore(cfg.ModelsDir, cfg.ModelCacheDir, &http.Client{Timeout: 10 * time.Minute}),
		Loader: vision.NewLoader(onnx.NewLoader(cfg.ONNXLibPath)),
		Imager: vision.DefaultImager(),
	}
}

// New создаёт сервисы и адаптеры для включённых типов. Модели не загружаются до Start.
func New(cfg *config.Config, userRepo port.UserRepository, backend Backend, hosts HostFactory) (*Container, error) {
	c := &Container{
		UserService: app.NewUserService(userRepo),
		Adapters:    make(map[entity.AdapterKind]*app.Adapter, len(cfg.Enabled)),
	}

	for _, kind := range cfg.Enabled {
		if _, dup := c.Adapters[kind]; dup {
			continue
		}
		ac, ok := cfg.Adapters[kind]
		if !ok {
			return nil, fmt.Errorf("no configuration for %s adapter", kind)
		}
		c.Adapters[kind] = app.NewAdapter(ac, app.AdapterDeps{
			Store:  backend.Store,
			Loader: backend.Loader,
			Imager: backend.Imager,
			Host:   hosts(kind),
		})
		c.order = append(c.order, kind)
	}
	return c, nil
}

// Start запускает загрузку моделей всех адаптеров параллельно.
func (c *Container) Start(ctx context.Context) map[entity.AdapterKind]*app.Task {
	tasks := make(map[entity.AdapterKind]*app.Task, len(c.order))
	for _, kind := range c.order {
		tasks[kind] = c.Adapters[kind].Start(ctx)
	}
	return tasks
}

// WaitLoaded ждёт завершения загрузок и возвращает ошибки неудавшихся.
// При отмене ctx возвращает то, что успело завершиться.
func WaitLoaded(ctx context.Context, tasks map[entity.AdapterKind]*app.Task) map[entity.AdapterKind]error {
	failed := make(map[entity.AdapterKind]error)
	for kind, task := range tasks {
		select {
		case <-task.Done():
		case <-ctx.Done():
			return failed
		}
		if err := task.Err(); err != nil {
			failed[kind] = err
		}
	}
	return failed
}

// Kinds возвращает включённые типы адаптеров в порядке конфигурации.
func (c *Container) Kinds() []entity.AdapterKind {
	return append([]entity.AdapterKind(nil), c.order...)
}

// Close закрывает все адаптеры.
func (c *Container) Close() error {
	var errs []error
	for _, kind := range c.order {
		if err := c.Adapters[kind].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s adapter: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}
