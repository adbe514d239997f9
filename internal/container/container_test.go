package container

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vision-nodes/config"
	app "vision-nodes/internal/application"
	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
	"vision-nodes/internal/infrastructure/flow"
)

type missingStore struct{}

func (missingStore) Resolve(context.Context, entity.ModelSource) (port.ModelFiles, error) {
	return port.ModelFiles{}, errors.New("not found")
}

func testConfig(t *testing.T, enabled ...entity.AdapterKind) *config.Config {
	t.Helper()
	cfg, err := config.FromEnv(func(string) string { return "" })
	require.NoError(t, err)
	cfg.Enabled = enabled
	return cfg
}

func TestNew_BuildsEnabledAdaptersInOrder(t *testing.T) {
	app.SetLogger(nil)
	hosts := map[entity.AdapterKind]*flow.ChannelHost{}
	factory := func(kind entity.AdapterKind) port.Host {
		h := flow.NewChannelHost(string(kind), 16)
		hosts[kind] = h
		return h
	}

	cfg := testConfig(t, entity.KindPose, entity.KindClassifier, entity.KindPose)
	c, err := New(cfg, nil, Backend{Store: missingStore{}}, factory)
	require.NoError(t, err)

	assert.Equal(t, []entity.AdapterKind{entity.KindPose, entity.KindClassifier}, c.Kinds())
	assert.Len(t, c.Adapters, 2)
	assert.Len(t, hosts, 2)
	assert.Equal(t, entity.KindPose, c.Adapters[entity.KindPose].Config().Kind)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for kind, task := range c.Start(ctx) {
		require.ErrorIs(t, task.Wait(ctx), entity.ErrModelLoad, kind)
		assert.False(t, c.Adapters[kind].Ready())
		assert.Equal(t, entity.StatusModelError, c.Adapters[kind].Status())

		ev := <-hosts[kind].Errors()
		assert.Nil(t, ev.Msg)
	}

	require.NoError(t, c.Close())
	for _, h := range hosts {
		h.Close()
	}
}

func TestNew_MissingAdapterConfig(t *testing.T) {
	cfg := testConfig(t, entity.KindDetector)
	delete(cfg.Adapters, entity.KindDetector)

	_, err := New(cfg, nil, Backend{}, func(entity.AdapterKind) port.Host { return flow.NewChannelHost("x", 1) })
	require.Error(t, err)
}

func TestWaitLoaded_CollectsFailures(t *testing.T) {
	app.SetLogger(nil)
	cfg := testConfig(t, entity.KindDetector, entity.KindClassifier)
	c, err := New(cfg, nil, Backend{Store: missingStore{}}, func(kind entity.AdapterKind) port.Host {
		return flow.NewChannelHost(string(kind), 16)
	})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	failed := WaitLoaded(ctx, c.Start(ctx))
	require.Len(t, failed, 2)
	for _, kind := range c.Kinds() {
		assert.ErrorIs(t, failed[kind], entity.ErrModelLoad, kind)
	}
}

func TestWaitLoaded_StopsOnCancel(t *testing.T) {
	app.SetLogger(nil)
	gate := make(chan struct{})
	cfg := testConfig(t, entity.KindPose)
	c, err := New(cfg, nil, Backend{Store: gatedStore(gate)}, func(kind entity.AdapterKind) port.Host {
		return flow.NewChannelHost(string(kind), 16)
	})
	require.NoError(t, err)

	tasks := c.Start(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Empty(t, WaitLoaded(ctx, tasks))

	close(gate)
	require.ErrorIs(t, tasks[entity.KindPose].Wait(context.Background()), entity.ErrModelLoad)
	require.NoError(t, c.Close())
}

// gatedStore отвечает ошибкой после закрытия канала.
type gatedStore chan struct{}

func (g gatedStore) Resolve(context.Context, entity.ModelSource) (port.ModelFiles, error) {
	<-g
	return port.ModelFiles{}, errors.New("not found")
}
