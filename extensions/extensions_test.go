package extensions

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jotai "github.com/dakom/jotai"
)

func TestLoggingExtension_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	store := jotai.NewStore(jotai.WithExtension(NewLoggingExtension(handler)))
	defer store.Dispose()

	broken := jotai.Provide(
		func(*jotai.ReadCtx) (string, error) {
			return "", errors.New("database unreachable")
		},
		jotai.WithName("UserRepo"),
	)

	_, err := jotai.Resolve(store, broken)
	require.Error(t, err)

	output := buf.String()
	assert.Contains(t, output, "operation failed")
	assert.Contains(t, output, "UserRepo")
	assert.Contains(t, output, "database unreachable")
}

func TestLoggingExtension_LogsSuccessAtDebug(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	store := jotai.NewStore(jotai.WithExtension(NewLoggingExtension(handler)))
	defer store.Dispose()

	_, err := jotai.Resolve(store, jotai.Stored(1, jotai.WithName("Counter")))
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "operation completed")
	assert.Contains(t, output, "Counter")
}

func TestLoggingExtension_ReportsCleanupError(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, nil)

	store := jotai.NewStore(jotai.WithExtension(NewLoggingExtension(handler)))

	atom := jotai.Provide(func(rc *jotai.ReadCtx) (int, error) {
		rc.OnCleanup(func() error {
			return errors.New("close failed")
		})
		return 1, nil
	}, jotai.WithName("Conn"))

	_, err := jotai.Resolve(store, atom)
	require.NoError(t, err)
	require.NoError(t, store.Dispose())

	output := buf.String()
	assert.Contains(t, output, "cleanup failed")
	assert.Contains(t, output, "close failed")
}

func TestMetricsExtension_CountsOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	ext, err := NewMetricsExtension(reg)
	require.NoError(t, err)

	store := jotai.NewStore(jotai.WithExtension(ext))
	defer store.Dispose()

	counter := jotai.Stored(0)
	_, err = jotai.Resolve(store, counter)
	require.NoError(t, err)
	require.NoError(t, jotai.Update(store, counter, 1))

	broken := jotai.Provide(func(*jotai.ReadCtx) (int, error) {
		return 0, errors.New("boom")
	})
	_, err = jotai.Resolve(store, broken)
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		ext.operationsTotal.WithLabelValues("resolve", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		ext.operationsTotal.WithLabelValues("resolve", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		ext.operationsTotal.WithLabelValues("update", "success")))
}

func TestMetricsExtension_CountsCleanupErrorsAndDispose(t *testing.T) {
	reg := prometheus.NewRegistry()
	ext, err := NewMetricsExtension(reg)
	require.NoError(t, err)

	store := jotai.NewStore(jotai.WithExtension(ext))

	atom := jotai.Provide(func(rc *jotai.ReadCtx) (int, error) {
		rc.OnCleanup(func() error {
			return errors.New("flush failed")
		})
		return 1, nil
	})

	_, err = jotai.Resolve(store, atom)
	require.NoError(t, err)
	require.NoError(t, store.Dispose())

	assert.Equal(t, float64(1), testutil.ToFloat64(ext.cleanupErrors))
	assert.Equal(t, float64(1), testutil.ToFloat64(ext.storesDisposed))
}

func TestMetricsExtension_RejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetricsExtension(reg)
	require.NoError(t, err)

	_, err = NewMetricsExtension(reg)
	assert.Error(t, err)
}

func TestGraphDebugExtension_DrawsGraphOnError(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, nil)

	store := jotai.NewStore(jotai.WithExtension(NewGraphDebugExtension(handler)))
	defer store.Dispose()

	storage := jotai.Stored("storage", jotai.WithName("Storage"))

	userService := jotai.Derive1(
		storage.Reactive(),
		func(rc *jotai.ReadCtx, s *jotai.Controller[string]) (string, error) {
			return "", errors.New("schema mismatch")
		},
		jotai.WithName("UserService"),
	)

	_, err := jotai.Resolve(store, userService)
	require.Error(t, err)

	output := buf.String()
	assert.Contains(t, output, "atom resolution failed")
	assert.Contains(t, output, "schema mismatch")
	assert.Contains(t, output, "Storage")
	assert.Contains(t, output, "UserService [FAILED]")
}

func TestGraphDebugExtension_EmptyGraph(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, nil)

	store := jotai.NewStore(jotai.WithExtension(NewGraphDebugExtension(handler)))
	defer store.Dispose()

	broken := jotai.Provide(func(*jotai.ReadCtx) (int, error) {
		return 0, errors.New("boom")
	})

	_, err := jotai.Resolve(store, broken)
	require.Error(t, err)

	assert.Contains(t, buf.String(), "no reactive dependencies tracked")
}
