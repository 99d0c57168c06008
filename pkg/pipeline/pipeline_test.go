package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proxyvet/proxyvet/pkg/probe"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeChecker scores tasks via a predicate and optionally sleeps, so tests
// can simulate slow probes still in flight when the queue empties.
type fakeChecker struct {
	succeed func(task probe.Task) bool
	delay   func(task probe.Task) time.Duration
	calls   int64
}

func (f *fakeChecker) Check(_ context.Context, task probe.Task) (probe.Outcome, bool) {
	atomic.AddInt64(&f.calls, 1)
	if f.delay != nil {
		time.Sleep(f.delay(task))
	}
	if f.succeed != nil && !f.succeed(task) {
		return probe.Outcome{}, false
	}
	return probe.Outcome{Proxy: task.Proxy, Variant: task.Variant, Latency: time.Millisecond}, true
}

// collectWriter records outcomes and can start failing after a set number
// of writes.
type collectWriter struct {
	mu        sync.Mutex
	outcomes  []probe.Outcome
	failAfter int // -1 never fails
	closed    bool
}

func newCollectWriter() *collectWriter {
	return &collectWriter{failAfter: -1}
}

func (c *collectWriter) Write(outcome *probe.Outcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAfter >= 0 && len(c.outcomes) >= c.failAfter {
		return errors.New("disk full")
	}
	c.outcomes = append(c.outcomes, *outcome)
	return nil
}

func (c *collectWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *collectWriter) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outcomes)
}

func makeTasks(n int) []probe.Task {
	addrs := make([]string, n)
	for i := range addrs {
		addrs[i] = "10.0.0.1:8080"
	}
	return BuildTasks(addrs, []probe.Variant{probe.VariantHTTP}, "http://t.example/", time.Second, "", "")
}

func TestRun_AllSucceed(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{1, 50} {
		checker := &fakeChecker{}
		writer := newCollectWriter()
		p := New(Config{Workers: workers}, checker, writer, testLogger())

		stats, err := p.Run(context.Background(), makeTasks(200))
		require.NoError(t, err)

		assert.Equal(t, 200, stats.Tasks)
		assert.Equal(t, 200, stats.Succeeded)
		assert.Equal(t, 0, stats.Failed)
		assert.Equal(t, 200, stats.Written)
		assert.Equal(t, 200, writer.len())
		assert.EqualValues(t, 200, atomic.LoadInt64(&checker.calls))
	}
}

func TestRun_FailuresProduceNoOutput(t *testing.T) {
	t.Parallel()

	tasks := BuildTasks(
		[]string{"1.1.1.1:80", "2.2.2.2:80", "3.3.3.3:80", "4.4.4.4:80"},
		[]probe.Variant{probe.VariantHTTP, probe.VariantSOCKS5},
		"http://t.example/", time.Second, "", "")

	checker := &fakeChecker{succeed: func(task probe.Task) bool {
		return task.Variant == probe.VariantSOCKS5
	}}
	writer := newCollectWriter()
	p := New(Config{Workers: 4}, checker, writer, testLogger())

	stats, err := p.Run(context.Background(), tasks)
	require.NoError(t, err)

	assert.Equal(t, 8, stats.Tasks)
	assert.Equal(t, 4, stats.Succeeded)
	assert.Equal(t, 4, stats.Failed)
	assert.Equal(t, 4, stats.Written)
	for _, out := range writer.outcomes {
		assert.Equal(t, probe.VariantSOCKS5, out.Variant)
	}
}

// A slow task dequeued before the queue empties must still have its
// outcome written: the result channel closes only after every worker has
// finished, never merely after the queue drains.
func TestRun_SlowTrailingOutcomeNotLost(t *testing.T) {
	t.Parallel()

	tasks := makeTasks(20)
	checker := &fakeChecker{delay: func(probe.Task) time.Duration {
		return 50 * time.Millisecond
	}}
	writer := newCollectWriter()
	p := New(Config{Workers: 8}, checker, writer, testLogger())

	stats, err := p.Run(context.Background(), tasks)
	require.NoError(t, err)
	assert.Equal(t, 20, stats.Written)
	assert.Equal(t, 20, writer.len())
}

func TestRun_WriteErrorIsFatalAndReturned(t *testing.T) {
	t.Parallel()

	checker := &fakeChecker{}
	writer := newCollectWriter()
	writer.failAfter = 3
	p := New(Config{Workers: 4}, checker, writer, testLogger())

	stats, err := p.Run(context.Background(), makeTasks(50))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// Every task still ran to completion; only writes stopped.
	assert.Equal(t, 50, stats.Succeeded)
	assert.Equal(t, 3, stats.Written)
	assert.Equal(t, 3, writer.len())
}

func TestRun_EmptyTaskList(t *testing.T) {
	t.Parallel()

	p := New(Config{Workers: 10}, &fakeChecker{}, newCollectWriter(), testLogger())
	stats, err := p.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Tasks)
	assert.Equal(t, 0, stats.Written)
}

func TestRun_RateLimiterStillCompletes(t *testing.T) {
	t.Parallel()

	checker := &fakeChecker{}
	writer := newCollectWriter()
	p := New(Config{Workers: 5, RateLimit: 1000}, checker, writer, testLogger())

	stats, err := p.Run(context.Background(), makeTasks(30))
	require.NoError(t, err)
	assert.Equal(t, 30, stats.Written)
}

func TestBuildTasks_CrossProduct(t *testing.T) {
	t.Parallel()

	tasks := BuildTasks(
		[]string{"1.2.3.4:8080", "5.6.7.8:1080"},
		[]probe.Variant{probe.VariantHTTP, probe.VariantSOCKS4, probe.VariantSOCKS5},
		"http://t.example/", 5*time.Second, "Current IP", "")

	require.Len(t, tasks, 6)
	assert.Equal(t, "1.2.3.4:8080", tasks[0].Proxy)
	assert.Equal(t, probe.VariantHTTP, tasks[0].Variant)
	assert.Equal(t, "5.6.7.8:1080", tasks[5].Proxy)
	assert.Equal(t, probe.VariantSOCKS5, tasks[5].Variant)
	for _, task := range tasks {
		assert.Equal(t, "Current IP", task.TextPresent)
		assert.Equal(t, 5*time.Second, task.Timeout)
	}
}
