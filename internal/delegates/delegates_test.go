package delegates

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/nholik/delegate-sentinel/internal/event"
	"github.com/nholik/delegate-sentinel/internal/message"
	"github.com/nholik/delegate-sentinel/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	mu        sync.Mutex
	responses [][]string
	errs      []error
	calls     int
}

func (s *stubLister) ActiveDelegates(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	if len(s.responses) == 0 {
		return nil, nil
	}
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

func (s *stubLister) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newEngine(t *testing.T, lister *stubLister, opts ...Option) *Engine {
	t.Helper()
	engine, err := New(context.Background(), lister, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return engine
}

func TestComputeDiff_ReportsMembershipChanges(t *testing.T) {
	lister := &stubLister{responses: [][]string{
		{"A", "B", "C"},
		{"B", "C", "D"},
	}}
	engine := newEngine(t, lister)

	change, changed, err := engine.ComputeDiff(context.Background())
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, []string{"D"}, change.Added)
	assert.Equal(t, []string{"A"}, change.Removed)
	assert.Equal(t, []string{"B", "C", "D"}, engine.Baseline())
}

func TestComputeDiff_UnchangedKeepsBaseline(t *testing.T) {
	lister := &stubLister{responses: [][]string{
		{"A", "B"},
		{"B", "A"},
	}}
	engine := newEngine(t, lister)

	change, changed, err := engine.ComputeDiff(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, change.Empty())
	assert.Equal(t, []string{"A", "B"}, engine.Baseline())
}

func TestComputeDiff_IsIdempotent(t *testing.T) {
	lister := &stubLister{responses: [][]string{
		{"A"},
		{"A", "B"},
	}}
	engine := newEngine(t, lister)

	_, changed, err := engine.ComputeDiff(context.Background())
	require.NoError(t, err)
	require.True(t, changed)

	_, changed, err = engine.ComputeDiff(context.Background())
	require.NoError(t, err)
	assert.False(t, changed, "second query with the same set must report no change")
}

func TestComputeDiff_NilListIsEmpty(t *testing.T) {
	lister := &stubLister{responses: [][]string{
		{"A", "B"},
		nil,
	}}
	engine := newEngine(t, lister)

	change, changed, err := engine.ComputeDiff(context.Background())
	require.NoError(t, err)
	require.True(t, changed)
	assert.Empty(t, change.Added)
	assert.Equal(t, []string{"A", "B"}, change.Removed)
	assert.Empty(t, engine.Baseline())
}

func TestComputeDiff_QueryErrorKeepsBaseline(t *testing.T) {
	lister := &stubLister{
		responses: [][]string{{"A"}, {"A"}},
		errs:      []error{nil, errors.New("node down")},
	}
	engine := newEngine(t, lister)

	_, changed, err := engine.ComputeDiff(context.Background())
	require.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{"A"}, engine.Baseline())
}

func TestNew_RetriesStartupQuery(t *testing.T) {
	lister := &stubLister{
		responses: [][]string{{"A"}},
		errs:      []error{errors.New("booting"), errors.New("booting")},
	}

	engine := newEngine(t, lister, WithStartupBackOff(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)))

	assert.Equal(t, 3, lister.Calls())
	assert.Equal(t, []string{"A"}, engine.Baseline())
}

func TestNew_GivesUpAfterRetries(t *testing.T) {
	lister := &stubLister{errs: []error{
		errors.New("down"), errors.New("down"), errors.New("down"),
	}}

	_, err := New(context.Background(), lister, zerolog.Nop(),
		WithStartupBackOff(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1)))
	require.Error(t, err)
	assert.Equal(t, 2, lister.Calls())
}

func TestNew_RequiresLister(t *testing.T) {
	_, err := New(context.Background(), nil, zerolog.Nop())
	require.Error(t, err)
}

func TestTransform_SuppressesWhenUnchanged(t *testing.T) {
	lister := &stubLister{responses: [][]string{{"A"}, {"A"}, {"B"}}}
	engine := newEngine(t, lister)
	occurrence := event.Occurrence{Name: event.ActiveDelegatesChanged}

	args, err := engine.Transform(context.Background(), occurrence)
	require.NoError(t, err)
	assert.Nil(t, args)

	args, err = engine.Transform(context.Background(), occurrence)
	require.NoError(t, err)
	require.Len(t, args, 2)

	added, err := args.Strings(0)
	require.NoError(t, err)
	removed, err := args.Strings(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, added)
	assert.Equal(t, []string{"A"}, removed)
	assert.IsType(t, message.Args{}, args)
}

func TestComputeDiff_ConcurrentTriggersReportOnce(t *testing.T) {
	lister := &stubLister{responses: [][]string{
		{"A", "B"},
		{"A", "C"},
	}}
	engine := newEngine(t, lister)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, changed, err := engine.ComputeDiff(context.Background())
			if err != nil || !changed {
				return
			}
			mu.Lock()
			changes++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, changes)
	assert.Equal(t, []string{"A", "C"}, engine.Baseline())
}

func TestEngine_RecordsMetrics(t *testing.T) {
	m := metrics.New()
	lister := &stubLister{responses: [][]string{
		{"A", "B", "C"},
		{"A", "B"},
	}}
	engine := newEngine(t, lister, WithMetrics(m))

	_, changed, err := engine.ComputeDiff(context.Background())
	require.NoError(t, err)
	require.True(t, changed)

	expected := `
# HELP delegate_sentinel_active_delegates Number of delegates in the last queried active set.
# TYPE delegate_sentinel_active_delegates gauge
delegate_sentinel_active_delegates 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "delegate_sentinel_active_delegates"))
}
