package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/infrastructure/storage"
)

func TestUserService_BeginCheckAndCancel(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.BeginCheck(ctx, 1, 10, entity.KindPose)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, user.State)
	require.Equal(t, entity.KindPose, user.Kind)

	user, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
	require.Equal(t, entity.KindPose, user.Kind)
}

func TestUserService_SetState(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.SetState(ctx, 2, 20, entity.StateProcessing)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, user.State)
}

func TestUserService_SetThreshold(t *testing.T) {
	repo := storage.NewMemoryUserRepository()
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.SetThreshold(ctx, 3, 30, 65)
	require.NoError(t, err)
	require.NotNil(t, user.Threshold)
	require.Equal(t, 65, *user.Threshold)

	stored, err := svc.Get(ctx, 3, 30)
	require.NoError(t, err)
	require.Equal(t, 65, *stored.Threshold)
}

func TestUserService_ResetThreshold(t *testing.T) {
	svc := NewUserService(storage.NewMemoryUserRepository())
	ctx := context.Background()

	_, err := svc.SetThreshold(ctx, 4, 40, 20)
	require.NoError(t, err)

	user, err := svc.ResetThreshold(ctx, 4, 40)
	require.NoError(t, err)
	require.Nil(t, user.Threshold)
}
