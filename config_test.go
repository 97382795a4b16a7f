package democrat_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/democrat"
	"github.com/vango-dev/democrat/pkg/telemetry"
)

func TestConfig_Options(t *testing.T) {
	assert.Empty(t, democrat.DefaultConfig().Options())

	reg := prometheus.NewRegistry()
	var skipped []error
	cfg := democrat.Config{
		Name:         "configured",
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Scheduler:    democrat.NewManualScheduler(),
		Passive:      true,
		Metrics:      telemetry.NewMetrics(telemetry.WithRegistry(reg)),
		Tracer:       telemetry.NewTracer(),
		OnPatchError: func(_ democrat.Patch, err error) { skipped = append(skipped, err) },
	}
	assert.Len(t, cfg.Options(), 7)

	effects := 0
	counter := democrat.NewComponent("Counter", func(h *democrat.Hooks, _ struct{}) int {
		count, _ := democrat.UseState(h, 1)
		democrat.UseEffect(h, func() democrat.Cleanup {
			effects++
			return nil
		}, nil)
		return count
	})

	store := democrat.New[int](counter.Create(struct{}{}), cfg)
	defer store.Destroy()
	cfg.Scheduler.(*democrat.ManualScheduler).Flush()

	assert.Equal(t, "configured", store.Name())
	assert.Equal(t, 1, store.GetState())
	assert.Zero(t, effects, "passive mode skips effects")
	assert.Equal(t, float64(1), activeStores(t, reg))

	store.ApplyPatches([]democrat.Patch{{HookIndex: 5, Kind: democrat.PatchState, Value: 2}})
	cfg.Scheduler.(*democrat.ManualScheduler).Flush()
	require.Len(t, skipped, 1)
	assert.True(t, errors.Is(skipped[0], democrat.ErrPatchHookMismatch) ||
		errors.Is(skipped[0], democrat.ErrInvalidPatchPath), skipped[0].Error())
}

// activeStores reads the active store gauge from reg.
func activeStores(t *testing.T, reg *prometheus.Registry) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "democrat_store_active" {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatal("democrat_store_active not registered")
	return 0
}
