package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"vision-nodes/internal/tensor"
)

// GoImager декодирует и масштабирует изображения без OpenCV.
type GoImager struct{}

// NewGoImager создаёт imager на чистом Go.
func NewGoImager() *GoImager {
	return &GoImager{}
}

// Decode декодирует изображение в тензор [h, w, channels] со значениями 0..255.
// channels: 1 (оттенки серого), 3 (RGB) или 4 (RGBA).
func (GoImager) Decode(data []byte, channels int) (*tensor.Tensor, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	if err := checkChannels(channels); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return imageToTensor(img, channels)
}

// ResizeBilinear масштабирует тензор [h, w, c] билинейной интерполяцией.
func (GoImager) ResizeBilinear(img *tensor.Tensor, height, width int) (*tensor.Tensor, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	shape := img.Shape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("expected [h, w, c] tensor, got %v", shape)
	}
	if err := checkChannels(shape[2]); err != nil {
		return nil, err
	}
	src, err := tensorToImage(img)
	if err != nil {
		return nil, err
	}
	resized := resize.Resize(uint(width), uint(height), src, resize.Bilinear)
	return imageToTensor(resized, shape[2])
}

func checkChannels(channels int) error {
	if channels != 1 && channels != 3 && channels != 4 {
		return fmt.Errorf("unsupported channel count %d", channels)
	}
	return nil
}

// imageToTensor переводит image.Image в тензор HWC без премультипликации альфы.
func imageToTensor(img image.Image, channels int) (*tensor.Tensor, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errors.New("empty image")
	}
	data := make([]float32, 0, w*h*channels)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if channels == 1 {
				g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
				data = append(data, float32(g.Y)/257)
				continue
			}
			n := nrgba64At(img, x, y)
			data = append(data, float32(n.R)/257, float32(n.G)/257, float32(n.B)/257)
			if channels == 4 {
				data = append(data, float32(n.A)/257)
			}
		}
	}
	return tensor.New([]int{h, w, channels}, data)
}

// nrgba64At читает пиксель без премультипликации; для NRGBA-изображений
// значения берутся напрямую, чтобы не терять точность на полупрозрачных пикселях.
func nrgba64At(img image.Image, x, y int) color.NRGBA64 {
	switch i := img.(type) {
	case *image.NRGBA:
		c := i.NRGBAAt(x, y)
		return color.NRGBA64{R: uint16(c.R) * 257, G: uint16(c.G) * 257, B: uint16(c.B) * 257, A: uint16(c.A) * 257}
	case *image.NRGBA64:
		return i.NRGBA64At(x, y)
	default:
		return color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
	}
}

// tensorToImage собирает image.Image из тензора HWC со значениями 0..255.
func tensorToImage(t *tensor.Tensor) (image.Image, error) {
	if t.Closed() {
		return nil, tensor.ErrClosed
	}
	shape := t.Shape()
	h, w, c := shape[0], shape[1], shape[2]
	data := t.Data()
	rect := image.Rect(0, 0, w, h)

	if c == 1 {
		img := image.NewGray16(rect)
		for i := 0; i < w*h; i++ {
			img.SetGray16(i%w, i/w, color.Gray16{Y: to16(data[i])})
		}
		return img, nil
	}

	img := image.NewNRGBA64(rect)
	for i := 0; i < w*h; i++ {
		p := data[i*c : i*c+c]
		px := color.NRGBA64{R: to16(p[0]), G: to16(p[1]), B: to16(p[2]), A: 0xffff}
		if c == 4 {
			px.A = to16(p[3])
		}
		img.SetNRGBA64(i%w, i/w, px)
	}
	return img, nil
}

func to16(v float32) uint16 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 0xffff
	default:
		return uint16(v*257 + 0.5)
	}
}
