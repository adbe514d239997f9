package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
	"vision-nodes/internal/tensor"
)

var errAdapterClosed = fmt.Errorf("%w: adapter closed", entity.ErrModelNotReady)

// AdapterDeps внешние зависимости адаптера.
type AdapterDeps struct {
	Store  port.ModelStore
	Loader port.ModelLoader
	Imager port.Imager
	Host   port.Host
}

// Adapter владеет жизненным циклом одной модели: загрузкой, инференсом
// и отчётом о статусе. Инференс внутри одного адаптера последовательный.
type Adapter struct {
	store  port.ModelStore
	loader port.ModelLoader
	pre    *Preprocessor
	host   port.Host
	status *StatusReporter

	// inferMu сериализует инференс и замену модели.
	inferMu sync.Mutex

	mu      sync.Mutex
	cfg     entity.AdapterConfig
	variant Variant
	state   State
	closed  bool

	closeOnce sync.Once
}

// NewAdapter создаёт адаптер. Загрузка модели начинается в Start.
func NewAdapter(cfg entity.AdapterConfig, deps AdapterDeps) *Adapter {
	return &Adapter{
		store:  deps.Store,
		loader: deps.Loader,
		pre:    NewPreprocessor(deps.Imager),
		host:   deps.Host,
		status: NewStatusReporter(deps.Host),
		cfg:    cfg.WithDefaults(),
	}
}

// Start запускает асинхронную загрузку модели из конфигурации адаптера.
func (a *Adapter) Start(ctx context.Context) *Task {
	a.mu.Lock()
	cfg := a.cfg
	a.mu.Unlock()
	return a.Reload(ctx, cfg)
}

// Reload загружает модель по новой конфигурации. Пока загрузка идёт,
// обслуживает предыдущая модель; при ошибке она остаётся в работе.
func (a *Adapter) Reload(ctx context.Context, cfg entity.AdapterConfig) *Task {
	task := newTask()
	go func() {
		task.finish(a.load(ctx, cfg.WithDefaults()))
	}()
	return task
}

// Ready сообщает, загружена ли модель.
func (a *Adapter) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Ready
}

// Status возвращает последнее состояние адаптера.
func (a *Adapter) Status() entity.Status {
	return a.status.Current()
}

// Config возвращает действующую конфигурацию.
func (a *Adapter) Config() entity.AdapterConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg
}

func (a *Adapter) load(ctx context.Context, cfg entity.AdapterConfig) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", entity.ErrModelLoad, r)
			a.failLoad(cfg, err)
		}
	}()

	a.status.Report(entity.StatusModelLoading)

	if err := cfg.Validate(); err != nil {
		var cfgErr *entity.ConfigError
		if errors.As(err, &cfgErr) {
			a.status.Report(cfgErr.Status)
		}
		Logf("%s adapter: %v", cfg.Kind, err)
		a.host.Error(err, nil)
		return err
	}
	variant, err := VariantFor(cfg.Kind)
	if err != nil {
		return err
	}

	files, err := a.store.Resolve(ctx, cfg.Source())
	if err != nil {
		err = wrapAs(entity.ErrModelLoad, err)
		a.failLoad(cfg, err)
		return err
	}
	if files.LabelsPath == "" {
		files.LabelsPath = cfg.LabelsPath
	}

	model, shape, err := variant.Load(ctx, a.loader, files)
	if err != nil {
		err = wrapAs(entity.ErrModelLoad, err)
		a.failLoad(cfg, err)
		return err
	}

	// Ждём текущий инференс, чтобы не закрыть модель под ним.
	a.inferMu.Lock()
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.inferMu.Unlock()
		_ = model.Close()
		return fmt.Errorf("%w: adapter closed during load", entity.ErrModelLoad)
	}
	previous := a.state.Model
	a.cfg = cfg
	a.variant = variant
	a.state = State{Ready: true, Model: model, InputShape: shape}
	a.mu.Unlock()
	a.inferMu.Unlock()

	if previous != nil {
		if err := previous.Close(); err != nil {
			Logf("%s adapter: close previous model: %v", cfg.Kind, err)
		}
	}

	Logf("%s adapter: model loaded from %s", cfg.Kind, files.ModelPath)
	a.status.Report(entity.StatusModelReady)
	return nil
}

func (a *Adapter) failLoad(cfg entity.AdapterConfig, err error) {
	Logf("%s adapter: %v", cfg.Kind, err)
	a.status.Report(entity.StatusModelError)
	a.host.Error(err, nil)
}

// HandleInput обрабатывает одно входное сообщение. При успехе выходное
// сообщение отправляется хосту и возвращается; при ошибке хост получает
// ошибку и статус error, выходного сообщения нет.
func (a *Adapter) HandleInput(ctx context.Context, msg *entity.Message) (*entity.Message, error) {
	out, err := a.process(ctx, msg)
	if err != nil {
		Logf("%s adapter: message %s: %v", a.Config().Kind, messageID(msg), err)
		a.status.Report(entity.StatusError)
		a.host.Error(err, msg)
		return nil, err
	}
	// Выход инференса, завершившегося после Close, хосту не отправляется.
	if a.isClosed() {
		Logf("%s adapter: message %s: dropped output after close", a.Config().Kind, messageID(msg))
		return nil, errAdapterClosed
	}
	a.host.Send(out)
	return out, nil
}

func (a *Adapter) process(ctx context.Context, msg *entity.Message) (out *entity.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: panic: %v", entity.ErrInference, r)
		}
	}()

	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", entity.ErrDecode)
	}
	if !a.Ready() {
		return nil, entity.ErrModelNotReady
	}

	image, err := readImage(msg.Payload)
	if err != nil {
		return nil, err
	}

	a.inferMu.Lock()
	defer a.inferMu.Unlock()

	a.mu.Lock()
	st, cfg, variant, closed := a.state, a.cfg, a.variant, a.closed
	a.mu.Unlock()
	if !st.Ready || closed {
		return nil, entity.ErrModelNotReady
	}
	req := NewInferenceRequest(msg, cfg)

	scope := tensor.NewScope()
	defer func() {
		if cerr := scope.Close(); cerr != nil {
			Logf("%s adapter: release tensors: %v", cfg.Kind, cerr)
		}
	}()

	input, err := variant.Preprocess(scope, a.pre, st, image)
	if err != nil {
		return nil, wrapAs(entity.ErrDecode, err)
	}

	a.status.Report(entity.StatusInfering)

	inferCtx, cancel := context.WithTimeout(ctx, cfg.InferTimeout)
	defer cancel()
	raw, err := variant.Infer(inferCtx, scope, st, input, req)
	if err == nil {
		err = inferCtx.Err()
	}
	if err != nil {
		return nil, wrapAs(entity.ErrInference, err)
	}

	out = buildOutput(msg, cfg, req, variant.Normalize(raw, req))
	a.status.Report(entity.StatusModelReady)
	return out, nil
}

// buildOutput собирает выходное сообщение из входного и результата.
func buildOutput(msg *entity.Message, cfg entity.AdapterConfig, req InferenceRequest, result entity.NormalizedResult) *entity.Message {
	out := msg.Clone()
	if cfg.Passthru {
		out.Image = msg.Payload
	}
	if cfg.Kind == entity.KindPredictor {
		argMax := result.ArgMax
		out.Payload = result.Values
		out.ArgMax = &argMax
		return out
	}
	out.Payload = result.Results
	out.Threshold = req.Threshold
	if cfg.Kind != entity.KindClassifier {
		out.MaxDetections = req.MaxDetections
	}
	if result.Classes != nil {
		out.Classes = result.Classes
	}
	return out
}

// readImage возвращает байты изображения; строка считается путём к файлу.
func readImage(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case []byte:
		return p, nil
	case string:
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrIO, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: unsupported payload type %T", entity.ErrDecode, payload)
	}
}

// Close переводит адаптер в состояние close и освобождает модель.
// Текущая загрузка не отменяется; её модель будет закрыта по завершении.
func (a *Adapter) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		a.status.Report(entity.StatusClose)

		a.inferMu.Lock()
		a.mu.Lock()
		model := a.state.Model
		a.state = State{}
		a.mu.Unlock()
		a.inferMu.Unlock()

		if model != nil {
			err = model.Close()
		}
	})
	return err
}

func (a *Adapter) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// wrapAs оборачивает err в sentinel, если он ещё не относится к таксономии ошибок.
func wrapAs(sentinel, err error) error {
	for _, known := range []error{
		entity.ErrConfig, entity.ErrModelLoad, entity.ErrModelNotReady,
		entity.ErrDecode, entity.ErrInference, entity.ErrIO,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

func messageID(msg *entity.Message) string {
	if msg == nil {
		return "<nil>"
	}
	return msg.ID
}
