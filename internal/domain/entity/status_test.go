package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusPresentation(t *testing.T) {
	tests := []struct {
		status Status
		want   NodeStatus
	}{
		{StatusModelReady, NodeStatus{Fill: "green", Shape: "dot", Text: "ready"}},
		{StatusModelLoading, NodeStatus{Fill: "yellow", Shape: "ring", Text: "loading model..."}},
		{StatusInfering, NodeStatus{Fill: "blue", Shape: "ring", Text: "infering..."}},
		{StatusModelError, NodeStatus{Fill: "red", Shape: "dot", Text: "model error"}},
		{StatusError, NodeStatus{Fill: "red", Shape: "dot", Text: "error"}},
		{StatusClose, NodeStatus{}},
		{StatusSetURL, NodeStatus{Fill: "grey", Shape: "dot", Text: "set a New URL"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			require.Equal(t, tt.want, tt.status.Presentation())
		})
	}
}

func TestStatusIsFailure(t *testing.T) {
	require.True(t, StatusError.IsFailure())
	require.True(t, StatusModelError.IsFailure())
	require.False(t, StatusModelReady.IsFailure())
	require.False(t, StatusClose.IsFailure())
}
