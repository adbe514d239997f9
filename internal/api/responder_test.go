package telegram

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"vision-nodes/internal/domain/entity"
)

func TestResponder_SendFormatsToChat(t *testing.T) {
	sender := &fakeSender{}
	r := NewResponder(sender, entity.KindDetector)

	out := &entity.Message{
		ID:        "m1",
		Meta:      map[string]string{MetaChatID: "42"},
		Threshold: 50,
		Payload: []entity.Result{
			{Class: "person", Score: 0.91, BBox: []float64{10, 20, 30, 40}},
			{Class: "dog", Score: 0.6, BBox: []float64{1, 2, 3, 4}},
		},
		Classes: map[string]int{"person": 1, "dog": 1},
	}
	r.Send(out)

	got := sender.last(t)
	assert.Equal(t, int64(42), got.chatID)
	assert.Equal(t, "📦 Найдено объектов: 2\n• person — 91% [10, 20, 30×40]\n• dog — 60% [1, 2, 3×4]\n\n📊 По классам: dog ×1, person ×1", got.text)
}

func TestResponder_ErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{entity.ErrModelNotReady, msgModelNotReady},
		{fmt.Errorf("%w: bad png", entity.ErrDecode), msgBadImage},
		{fmt.Errorf("%w: boom", entity.ErrInference), msgInferFailed},
		{fmt.Errorf("%w: missing", entity.ErrIO), msgProcessingError},
	}
	for _, tt := range tests {
		sender := &fakeSender{}
		NewResponder(sender, entity.KindPose).Error(tt.err, &entity.Message{Meta: map[string]string{MetaChatID: "7"}})
		assert.Equal(t, sentMessage{chatID: 7, text: tt.want}, sender.last(t))
	}
}

func TestResponder_WithoutChatOnlyLogs(t *testing.T) {
	sender := &fakeSender{}
	r := NewResponder(sender, entity.KindClassifier)

	r.Error(entity.ErrModelLoad, nil)
	r.Send(&entity.Message{ID: "x"})
	r.Send(&entity.Message{ID: "y", Meta: map[string]string{MetaChatID: "not-a-number"}})
	r.Status(entity.StatusModelReady.Presentation())

	assert.Empty(t, sender.sent)
}

func TestFormatOutput(t *testing.T) {
	argMax := 1
	tests := []struct {
		name string
		kind entity.AdapterKind
		msg  *entity.Message
		want string
	}{
		{
			name: "classifier",
			kind: entity.KindClassifier,
			msg:  &entity.Message{Payload: []entity.Result{{Class: "tabby cat", Score: 0.87}}},
			want: "🏷 Похоже на:\n• tabby cat — 87%",
		},
		{
			name: "nothing found",
			kind: entity.KindDetector,
			msg:  &entity.Message{Payload: []entity.Result{}, Threshold: 80},
			want: "🤷 Ничего не найдено (порог 80%).",
		},
		{
			name: "pose",
			kind: entity.KindPose,
			msg: &entity.Message{
				Payload: []entity.Result{{Class: "person", Score: 0.5, Keypoints: make([]entity.Keypoint, 17)}},
				Classes: map[string]int{"person": 1},
			},
			want: "🧍 Найдено людей: 1\n• поза 1 — 50%, точек: 17",
		},
		{
			name: "predictor",
			kind: entity.KindPredictor,
			msg:  &entity.Message{Payload: []float32{0.1, 0.7, 0.2}, ArgMax: &argMax},
			want: "🔢 Выход модели: 3 значений\nargMax = 1 (0.7000)\n[0.1000, 0.7000, 0.2000]",
		},
		{
			name: "predictor empty",
			kind: entity.KindPredictor,
			msg:  &entity.Message{Payload: []float32{}},
			want: "🔢 Модель вернула пустой выход.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatOutput(tt.kind, tt.msg))
		})
	}
}

func TestFormatValues_Truncates(t *testing.T) {
	values := make([]float32, 12)
	got := FormatOutput(entity.KindPredictor, &entity.Message{Payload: values})
	assert.Contains(t, got, "12 значений")
	assert.Contains(t, got, ", …]")
}
