package app

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
	"vision-nodes/internal/tensor"
)

func init() {
	SetLogger(nil)
}

type fakeHost struct {
	mu       sync.Mutex
	statuses []entity.NodeStatus
	errs     []error
	sent     []*entity.Message
}

func (h *fakeHost) Status(s entity.NodeStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, s)
}

func (h *fakeHost) Error(err error, _ *entity.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
}

func (h *fakeHost) Send(msg *entity.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, msg)
}

func (h *fakeHost) Sent() []*entity.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*entity.Message(nil), h.sent...)
}

func (h *fakeHost) Errors() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.errs...)
}

func (h *fakeHost) Texts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.statuses))
	for _, s := range h.statuses {
		out = append(out, s.Text)
	}
	return out
}

func (h *fakeHost) Last() entity.NodeStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.statuses) == 0 {
		return entity.NodeStatus{}
	}
	return h.statuses[len(h.statuses)-1]
}

type fakeStore struct {
	gate  chan struct{}
	err   error
	files port.ModelFiles
	srcs  []entity.ModelSource
	mu    sync.Mutex
}

func (s *fakeStore) Resolve(ctx context.Context, src entity.ModelSource) (port.ModelFiles, error) {
	s.mu.Lock()
	s.srcs = append(s.srcs, src)
	s.mu.Unlock()
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return port.ModelFiles{}, ctx.Err()
		}
	}
	if s.err != nil {
		return port.ModelFiles{}, s.err
	}
	files := s.files
	if files.ModelPath == "" {
		files.ModelPath = "/models/" + src.LocalModel + src.URL
	}
	return files, nil
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.srcs)
}

type fakeModel struct {
	mu     sync.Mutex
	closed bool
}

func (m *fakeModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *fakeModel) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type fakeClassifier struct {
	fakeModel
	out []entity.Classification
	err error
}

func (c *fakeClassifier) Classify(_ context.Context, _ *tensor.Tensor, topK int) ([]entity.Classification, error) {
	if c.err != nil {
		return nil, c.err
	}
	if topK > 0 && topK < len(c.out) {
		return c.out[:topK], nil
	}
	return c.out, nil
}

type fakeDetector struct {
	fakeModel
	out      []entity.Detection
	gotLimit int
	panicMsg string
	block    bool

	// started закрывается при входе в Detect, после чего Detect ждёт release.
	started chan struct{}
	release chan struct{}
}

func (d *fakeDetector) Detect(ctx context.Context, _ *tensor.Tensor, maxDetections int) ([]entity.Detection, error) {
	if d.panicMsg != "" {
		panic(d.panicMsg)
	}
	if d.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d.release != nil {
		close(d.started)
		<-d.release
	}
	d.gotLimit = maxDetections
	return append([]entity.Detection(nil), d.out...), nil
}

type fakePose struct {
	fakeModel
	out  []entity.Pose
	opts entity.PoseOptions
}

func (p *fakePose) EstimatePoses(_ context.Context, _ *tensor.Tensor, opts entity.PoseOptions) ([]entity.Pose, error) {
	p.opts = opts
	return p.out, nil
}

type fakePredictor struct {
	fakeModel
	shape  []int
	out    []float32
	inputs [][]int
	err    error
}

func (p *fakePredictor) InputShape() []int { return p.shape }

func (p *fakePredictor) Predict(_ context.Context, input *tensor.Tensor) (*tensor.Tensor, error) {
	p.inputs = append(p.inputs, input.Shape())
	if p.err != nil {
		return nil, p.err
	}
	return tensor.New([]int{1, len(p.out)}, append([]float32(nil), p.out...))
}

type fakeLoader struct {
	classifier *fakeClassifier
	detector   *fakeDetector
	pose       *fakePose
	predictor  *fakePredictor
	err        error
	calls      int
	mu         sync.Mutex
}

func (l *fakeLoader) count() {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
}

func (l *fakeLoader) LoadClassifier(context.Context, port.ModelFiles) (port.Classifier, error) {
	l.count()
	if l.err != nil {
		return nil, l.err
	}
	return l.classifier, nil
}

func (l *fakeLoader) LoadDetector(context.Context, port.ModelFiles) (port.Detector, error) {
	l.count()
	if l.err != nil {
		return nil, l.err
	}
	return l.detector, nil
}

func (l *fakeLoader) LoadPoseEstimator(context.Context, port.ModelFiles) (port.PoseEstimator, error) {
	l.count()
	if l.err != nil {
		return nil, l.err
	}
	return l.pose, nil
}

func (l *fakeLoader) LoadPredictor(context.Context, port.ModelFiles) (port.Predictor, error) {
	l.count()
	if l.err != nil {
		return nil, l.err
	}
	return l.predictor, nil
}

// fakeImager декодирует любые байты, кроме префикса "bad", в изображение 4x6.
type fakeImager struct {
	mu      sync.Mutex
	created []*tensor.Tensor
}

func (im *fakeImager) track(t *tensor.Tensor) *tensor.Tensor {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.created = append(im.created, t)
	return t
}

func (im *fakeImager) Decode(data []byte, channels int) (*tensor.Tensor, error) {
	if bytes.HasPrefix(data, []byte("bad")) {
		return nil, errors.New("unknown image format")
	}
	t, err := tensor.Zeros([]int{4, 6, channels})
	if err != nil {
		return nil, err
	}
	for i := range t.Data() {
		t.Data()[i] = 255
	}
	return im.track(t), nil
}

func (im *fakeImager) ResizeBilinear(img *tensor.Tensor, height, width int) (*tensor.Tensor, error) {
	shape := img.Shape()
	t, err := tensor.Zeros([]int{height, width, shape[2]})
	if err != nil {
		return nil, err
	}
	for i := range t.Data() {
		t.Data()[i] = img.Data()[0]
	}
	return im.track(t), nil
}

func (im *fakeImager) AllReleased() bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	for _, t := range im.created {
		if !t.Closed() {
			return false
		}
	}
	return len(im.created) > 0
}
