package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMessage_AssignsID(t *testing.T) {
	a := NewMessage([]byte{1})
	b := NewMessage([]byte{2})
	require.NotEmpty(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)
}

func TestMessageClone_CopiesMeta(t *testing.T) {
	msg := NewMessage("/tmp/cat.jpg")
	msg.Meta = map[string]string{"chat": "10"}

	out := msg.Clone()
	out.Meta["chat"] = "20"
	out.Payload = []string{"changed"}

	require.Equal(t, "10", msg.Meta["chat"])
	require.Equal(t, "/tmp/cat.jpg", msg.Payload)
	require.Equal(t, msg.ID, out.ID)
}
