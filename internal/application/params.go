package app

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"vision-nodes/internal/domain/entity"
)

// InferenceRequest параметры одного вызова модели.
type InferenceRequest struct {
	Threshold     int
	MaxDetections int
}

// NewInferenceRequest берёт порог и лимит из сообщения, а при их отсутствии
// или неверном формате берёт их из конфигурации адаптера.
func NewInferenceRequest(msg *entity.Message, cfg entity.AdapterConfig) InferenceRequest {
	req := InferenceRequest{
		Threshold:     cfg.Threshold,
		MaxDetections: cfg.MaxDetections,
	}
	if msg == nil {
		return req
	}
	if v, ok := parseInt(msg.Threshold); ok {
		req.Threshold = entity.ClampThreshold(v)
	}
	if v, ok := parseInt(msg.MaxDetections); ok && v > 0 {
		req.MaxDetections = v
	}
	return req
}

// parseInt разбирает целое из значений, которые может положить в сообщение хост.
// Дробная часть отбрасывается.
func parseInt(v any) (int, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt(f)
		}
		return 0, false
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt(f)
		}
		return 0, false
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Trunc(f)), true
}
