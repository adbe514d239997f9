//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"sync"
	"unsafe"

	"gocv.io/x/gocv"

	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
	"vision-nodes/internal/tensor"
)

// DefaultImager возвращает imager на OpenCV.
func DefaultImager() port.Imager {
	return NewCVImager()
}

// CVImager декодирует и масштабирует изображения через OpenCV.
type CVImager struct{}

// NewCVImager создаёт imager на OpenCV.
func NewCVImager() *CVImager {
	return &CVImager{}
}

// Decode декодирует изображение в тензор [h, w, channels] в порядке RGB.
func (CVImager) Decode(data []byte, channels int) (*tensor.Tensor, error) {
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	flags := gocv.IMReadColor
	switch channels {
	case 1:
		flags = gocv.IMReadGrayScale
	case 4:
		flags = gocv.IMReadUnchanged
	}

	mat, err := gocv.IMDecode(data, flags)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("failed to decode image")
	}

	if channels == 1 {
		return matToTensor(mat)
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	switch {
	case channels == 3:
		gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB)
	case mat.Channels() == 4:
		gocv.CvtColor(mat, &rgb, gocv.ColorBGRAToRGBA)
	case mat.Channels() == 1:
		gocv.CvtColor(mat, &rgb, gocv.ColorGrayToBGRA)
	default:
		gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGBA)
	}
	return matToTensor(rgb)
}

// ResizeBilinear масштабирует тензор [h, w, c] с линейной интерполяцией.
func (CVImager) ResizeBilinear(img *tensor.Tensor, height, width int) (*tensor.Tensor, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	src, err := tensorToMat(img)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	return matToTensor(dst)
}

// matToTensor копирует Mat в float32-тензор [h, w, c].
func matToTensor(m gocv.Mat) (*tensor.Tensor, error) {
	mt, err := floatMatType(m.Channels())
	if err != nil {
		return nil, err
	}
	f := gocv.NewMat()
	defer f.Close()
	m.ConvertTo(&f, mt)

	ptr, err := f.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read mat data: %w", err)
	}
	data := make([]float32, len(ptr))
	copy(data, ptr)
	return tensor.New([]int{f.Rows(), f.Cols(), f.Channels()}, data)
}

// tensorToMat создаёт Mat из тензора [h, w, c]. Вызывающий закрывает Mat.
func tensorToMat(t *tensor.Tensor) (gocv.Mat, error) {
	if t.Closed() {
		return gocv.Mat{}, tensor.ErrClosed
	}
	shape := t.Shape()
	if len(shape) != 3 {
		return gocv.Mat{}, fmt.Errorf("expected [h, w, c] tensor, got %v", shape)
	}
	mt, err := floatMatType(shape[2])
	if err != nil {
		return gocv.Mat{}, err
	}
	data := t.Data()
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
	return gocv.NewMatFromBytes(shape[0], shape[1], mt, raw)
}

func floatMatType(channels int) (gocv.MatType, error) {
	switch channels {
	case 1:
		return gocv.MatTypeCV32FC1, nil
	case 3:
		return gocv.MatTypeCV32FC3, nil
	case 4:
		return gocv.MatTypeCV32FC4, nil
	default:
		return 0, fmt.Errorf("unsupported channel count %d", channels)
	}
}

// dnnModel сеть OpenCV DNN. Вызовы Forward сериализуются.
type dnnModel struct {
	mu     sync.Mutex
	net    gocv.Net
	labels []string
	size   image.Point
	scale  float64
	mean   gocv.Scalar
}

func openModel(ctx context.Context, files port.ModelFiles) (*dnnModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	labels, err := LoadLabels(files.LabelsPath)
	if err != nil {
		return nil, err
	}
	net := gocv.ReadNet(files.ModelPath, files.ConfigPath)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("failed to read network %q", files.ModelPath)
	}
	return &dnnModel{net: net, labels: labels}, nil
}

// forward прогоняет изображение через сеть; вызывающий закрывает результат.
func (m *dnnModel) forward(ctx context.Context, img *tensor.Tensor) (gocv.Mat, error) {
	if err := ctx.Err(); err != nil {
		return gocv.Mat{}, err
	}
	mat, err := tensorToMat(img)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, m.scale, m.size, m.mean, false, false)
	defer blob.Close()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.net.SetInput(blob, "")
	return m.net.Forward(""), nil
}

func (m *dnnModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Close()
}

// DNNClassifier классификатор MobileNet (вход 224x224, значения -1..1).
type DNNClassifier struct {
	*dnnModel
}

// LoadClassifier загружает классификатор.
func (l *Loader) LoadClassifier(ctx context.Context, files port.ModelFiles) (port.Classifier, error) {
	m, err := openModel(ctx, files)
	if err != nil {
		return nil, err
	}
	m.size = image.Pt(224, 224)
	m.scale = 1.0 / 127.5
	m.mean = gocv.NewScalar(127.5, 127.5, 127.5, 0)
	return &DNNClassifier{dnnModel: m}, nil
}

// Classify возвращает topK классов по убыванию вероятности.
func (c *DNNClassifier) Classify(ctx context.Context, img *tensor.Tensor, topK int) ([]entity.Classification, error) {
	prob, err := c.forward(ctx, img)
	if err != nil {
		return nil, err
	}
	defer prob.Close()

	flat := prob.Reshape(1, 1)
	defer flat.Close()

	out := make([]entity.Classification, 0, flat.Cols())
	for i := 0; i < flat.Cols(); i++ {
		out = append(out, entity.Classification{
			ClassName:   labelFor(c.labels, i),
			Probability: float64(flat.GetFloatAt(0, i)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Probability > out[j].Probability })
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// DNNDetector детектор SSD (выход [1, 1, N, 7]).
type DNNDetector struct {
	*dnnModel
}

// LoadDetector загружает детектор.
func (l *Loader) LoadDetector(ctx context.Context, files port.ModelFiles) (port.Detector, error) {
	m, err := openModel(ctx, files)
	if err != nil {
		return nil, err
	}
	m.size = image.Pt(300, 300)
	m.scale = 1.0
	m.mean = gocv.NewScalar(0, 0, 0, 0)
	return &DNNDetector{dnnModel: m}, nil
}

// Detect возвращает не более maxDetections объектов по убыванию score.
func (d *DNNDetector) Detect(ctx context.Context, img *tensor.Tensor, maxDetections int) ([]entity.Detection, error) {
	shape := img.Shape()
	height, width := float64(shape[0]), float64(shape[1])

	prob, err := d.forward(ctx, img)
	if err != nil {
		return nil, err
	}
	defer prob.Close()

	var out []entity.Detection
	for i := 0; i+6 < prob.Total(); i += 7 {
		score := float64(prob.GetFloatAt(0, i+2))
		if score <= 0 {
			continue
		}
		classID := int(prob.GetFloatAt(0, i+1))
		x1 := float64(prob.GetFloatAt(0, i+3)) * width
		y1 := float64(prob.GetFloatAt(0, i+4)) * height
		x2 := float64(prob.GetFloatAt(0, i+5)) * width
		y2 := float64(prob.GetFloatAt(0, i+6)) * height
		out = append(out, entity.Detection{
			Class: d.className(classID),
			Score: score,
			BBox:  [4]float64{x1, y1, x2 - x1, y2 - y1},
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if maxDetections > 0 && len(out) > maxDetections {
		out = out[:maxDetections]
	}
	return out, nil
}

func (d *DNNDetector) className(id int) string {
	if len(d.labels) > 0 {
		return labelFor(d.labels, id)
	}
	return CocoLabel(id)
}

// DNNPoseEstimator оценка позы по тепловым картам OpenPose.
// Находит одну позу: максимум каждой тепловой карты.
type DNNPoseEstimator struct {
	*dnnModel
}

// LoadPoseEstimator загружает модель позы.
func (l *Loader) LoadPoseEstimator(ctx context.Context, files port.ModelFiles) (port.PoseEstimator, error) {
	m, err := openModel(ctx, files)
	if err != nil {
		return nil, err
	}
	m.size = image.Pt(368, 368)
	m.scale = 1.0 / 255
	m.mean = gocv.NewScalar(0, 0, 0, 0)
	return &DNNPoseEstimator{dnnModel: m}, nil
}

// EstimatePoses возвращает позы со score не ниже opts.ScoreThreshold.
func (p *DNNPoseEstimator) EstimatePoses(ctx context.Context, img *tensor.Tensor, opts entity.PoseOptions) ([]entity.Pose, error) {
	shape := img.Shape()
	height, width := float64(shape[0]), float64(shape[1])

	prob, err := p.forward(ctx, img)
	if err != nil {
		return nil, err
	}
	defer prob.Close()

	dims := prob.Size()
	if len(dims) != 4 || dims[1] < len(poseParts) {
		return nil, fmt.Errorf("unexpected pose output shape %v", dims)
	}
	mapH, mapW := dims[2], dims[3]

	pose := entity.Pose{Keypoints: make([]entity.Keypoint, 0, len(poseParts))}
	var total float64
	for i, part := range poseParts {
		heatmap, err := prob.FromPtr(mapH, mapW, gocv.MatTypeCV32F, 0, i)
		if err != nil {
			return nil, fmt.Errorf("read heatmap %s: %w", part, err)
		}
		_, maxVal, _, maxLoc := gocv.MinMaxLoc(heatmap)
		heatmap.Close()

		x := float64(maxLoc.X) * width / float64(mapW)
		if opts.FlipHorizontal {
			x = width - x
		}
		pose.Keypoints = append(pose.Keypoints, entity.Keypoint{
			Part:     part,
			Score:    float64(maxVal),
			Position: entity.Position{X: x, Y: float64(maxLoc.Y) * height / float64(mapH)},
		})
		total += float64(maxVal)
	}
	pose.Score = total / float64(len(poseParts))

	if pose.Score < opts.ScoreThreshold || opts.MaxDetections == 0 {
		return nil, nil
	}
	return []entity.Pose{pose}, nil
}
