package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/atoms/pkg/atom"
)

func newMetricsStore(t *testing.T, opts ...MetricsOption) (*atom.Store, *Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := NewMetrics(append([]MetricsOption{WithRegistry(reg)}, opts...)...)
	s := atom.NewStore(atom.WithObserver(m))
	t.Cleanup(s.Close)
	return s, m, reg
}

func TestMetrics_MountAndNotify(t *testing.T) {
	s, m, _ := newMetricsStore(t)

	count := atom.New(1).WithLabel("count")
	doubled := atom.Derived(func(get atom.Getter) (int, error) {
		n, err := atom.Get(get, count)
		return n * 2, err
	}).WithLabel("doubled")

	unsubscribe := s.Subscribe(doubled, atom.NewListener(nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mounts.WithLabelValues("count")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mounts.WithLabelValues("doubled")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.mounted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recomputations.WithLabelValues("doubled", "ok")))

	require.NoError(t, atom.Set(s, count, 2))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions))

	unsubscribe()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.mounted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unmounts.WithLabelValues("count")))
}

func TestMetrics_RecomputeErrors(t *testing.T) {
	s, m, _ := newMetricsStore(t)

	broken := atom.Derived(func(atom.Getter) (int, error) {
		return 0, errors.New("boom")
	}).WithLabel("broken")
	var loop *atom.Atom[int]
	loop = atom.Derived(func(get atom.Getter) (int, error) {
		return atom.Get(get, loop)
	}).WithLabel("loop")

	_, _ = atom.Get(s, broken)
	_, _ = atom.Get(s, loop)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.recomputations.WithLabelValues("broken", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recomputations.WithLabelValues("loop", "cycle")))
}

func TestMetrics_Async(t *testing.T) {
	s, m, _ := newMetricsStore(t)

	release := make(chan struct{})
	user := atom.Async(func(context.Context, atom.Getter) (string, error) {
		<-release
		return "ann", nil
	}).WithLabel("user")

	_, err := atom.Get(s, user)
	require.True(t, atom.IsPending(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.asyncStarted.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := atom.Await(ctx, s, user)
	require.NoError(t, err)
	assert.Equal(t, "ann", v)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.asyncSettled.WithLabelValues("user", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

func TestMetrics_Superseded(t *testing.T) {
	s, m, _ := newMetricsStore(t)

	never := atom.AsyncWritable(
		func(ctx context.Context, _ atom.Getter) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
		func(_ atom.Getter, set atom.Setter, args ...any) (any, error) {
			return nil, nil
		},
	).WithLabel("never")

	_, _ = atom.Get(s, never)
	s.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.asyncSuperseded.WithLabelValues("never")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

func TestMetrics_PerAtomDisabled(t *testing.T) {
	s, m, _ := newMetricsStore(t, WithPerAtom(false))

	count := atom.New(1).WithLabel("count")
	unsubscribe := s.Subscribe(count, atom.NewListener(nil))
	defer unsubscribe()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.mounts.WithLabelValues("")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.mounts))
}

func TestMetrics_NamespaceAndConstLabels(t *testing.T) {
	s, _, reg := newMetricsStore(t,
		WithNamespace("myapp"),
		WithSubsystem("state"),
		WithConstLabels(prometheus.Labels{"store": "main"}),
		WithBuckets([]float64{0.001, 0.01}),
	)

	count := atom.New(1)
	require.NoError(t, atom.Set(s, count, 2))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
		for _, metric := range f.GetMetric() {
			found := false
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "store" && lp.GetValue() == "main" {
					found = true
				}
			}
			assert.True(t, found, "expected const label on %s", f.GetName())
		}
	}
	assert.True(t, names["myapp_state_transactions_total"])
	assert.True(t, names["myapp_state_transaction_duration_seconds"])
}

func TestResultCategories(t *testing.T) {
	assert.Equal(t, "ok", result(nil))
	assert.Equal(t, "error", result(errors.New("x")))
	assert.Equal(t, "cycle", result(atom.ErrCyclicDependency))
	assert.Equal(t, "pending", result(atom.ErrPending))
}
