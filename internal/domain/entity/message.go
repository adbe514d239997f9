package entity

import (
	"maps"

	"github.com/google/uuid"
)

// Message сообщение потока. На входе Payload содержит []byte с изображением
// или строку с путём к файлу, на выходе список результатов.
type Message struct {
	ID            string            `json:"_msgid"`
	Payload       any               `json:"payload"`
	Threshold     any               `json:"threshold,omitempty"`
	MaxDetections any               `json:"maxDetections,omitempty"`
	Image         any               `json:"image,omitempty"`
	Classes       map[string]int    `json:"classes,omitempty"`
	ArgMax        *int              `json:"argMax,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// NewMessage создаёт сообщение с новым идентификатором.
func NewMessage(payload any) *Message {
	return &Message{
		ID:      uuid.NewString(),
		Payload: payload,
	}
}

// Clone возвращает поверхностную копию сообщения с собственной картой Meta.
func (m *Message) Clone() *Message {
	out := *m
	if m.Meta != nil {
		out.Meta = maps.Clone(m.Meta)
	}
	if m.ID == "" {
		out.ID = uuid.NewString()
	}
	return &out
}
