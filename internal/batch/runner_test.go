package batch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digibook/digimonitor/internal/extract"
	"github.com/digibook/digimonitor/internal/model"
	"github.com/digibook/digimonitor/internal/resilience"
)

// stubExtractor counts invocations per URL and delegates behavior to fn.
type stubExtractor struct {
	mu       sync.Mutex
	platform model.Platform
	calls    map[string]int
	total    int
	fn       func(ctx context.Context, target model.Target, call int) (*model.Payload, error)
}

func newStub(p model.Platform, fn func(ctx context.Context, target model.Target, call int) (*model.Payload, error)) *stubExtractor {
	return &stubExtractor{platform: p, calls: map[string]int{}, fn: fn}
}

func (s *stubExtractor) Name() string             { return "stub" }
func (s *stubExtractor) Platform() model.Platform { return s.platform }

func (s *stubExtractor) Extract(ctx context.Context, target model.Target) (*model.Payload, error) {
	s.mu.Lock()
	s.calls[target.URL]++
	s.total++
	call := s.calls[target.URL]
	s.mu.Unlock()
	return s.fn(ctx, target, call)
}

func (s *stubExtractor) callCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

func (s *stubExtractor) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func succeed(_ context.Context, target model.Target, _ int) (*model.Payload, error) {
	return &model.Payload{URL: target.URL, Platform: target.Platform, ExtractedAt: time.Now()}, nil
}

func targetsFor(p model.Platform, urls ...string) []model.Target {
	targets := make([]model.Target, len(urls))
	for i, u := range urls {
		targets[i] = model.Target{Index: i, URL: u, Platform: p}
	}
	return targets
}

func fastConfig() Config {
	return Config{
		Retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: 1 * time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
			Multiplier:     2.0,
		},
		SkipURLCheck: true,
	}
}

func TestRun_AllSucceed_SingleTarget(t *testing.T) {
	stub := newStub(model.PlatformTwitch, succeed)
	runner := NewRunner(stub, fastConfig())

	report := runner.Run(context.Background(), targetsFor(model.PlatformTwitch, "https://www.twitch.tv/x"))

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, report.Total)
	require.Len(t, report.Outcomes, 1)
	assert.True(t, report.Outcomes[0].OK())
	assert.Equal(t, 1, report.Outcomes[0].Attempts)
}

func TestRun_OneOutcomePerTarget_InInputOrder(t *testing.T) {
	urls := make([]string, 20)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://youtube.com/watch?v=%02d", i)
	}
	stub := newStub(model.PlatformYouTube, succeed)
	runner := NewRunner(stub, fastConfig())

	report := runner.Run(context.Background(), targetsFor(model.PlatformYouTube, urls...))

	require.Len(t, report.Outcomes, len(urls))
	for i, o := range report.Outcomes {
		assert.Equal(t, i, o.Target.Index)
		assert.Equal(t, urls[i], o.Target.URL)
	}
}

func TestRun_TransientFailure_RetriedThenRecorded(t *testing.T) {
	stub := newStub(model.PlatformYouTube, func(_ context.Context, target model.Target, _ int) (*model.Payload, error) {
		if target.URL == "https://bad.example/1" {
			return nil, extract.Transientf("throttled")
		}
		return succeed(nil, target, 0)
	})
	runner := NewRunner(stub, fastConfig())

	targets := targetsFor(model.PlatformYouTube,
		"https://ok.example/0", "https://bad.example/1", "https://ok.example/2")
	report := runner.Run(context.Background(), targets)

	// retries+1 invocations for the transient target, one for the others.
	assert.Equal(t, 3, stub.callCount("https://bad.example/1"))
	assert.Equal(t, 1, stub.callCount("https://ok.example/0"))
	assert.Equal(t, 1, stub.callCount("https://ok.example/2"))

	// The failing target never aborts the batch or hides its failure.
	require.Len(t, report.Outcomes, 3)
	assert.True(t, report.Outcomes[0].OK())
	assert.False(t, report.Outcomes[1].OK())
	assert.Equal(t, model.FailureTransient, report.Outcomes[1].Failure)
	assert.Equal(t, 3, report.Outcomes[1].Attempts)
	assert.True(t, report.Outcomes[2].OK())
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
}

func TestRun_PermanentFailure_NoRetry(t *testing.T) {
	stub := newStub(model.PlatformTikTok, func(_ context.Context, _ model.Target, _ int) (*model.Payload, error) {
		return nil, extract.Permanentf("video removed")
	})
	runner := NewRunner(stub, fastConfig())

	report := runner.Run(context.Background(), targetsFor(model.PlatformTikTok, "https://gone.example/v"))

	assert.Equal(t, 1, stub.callCount("https://gone.example/v"))
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, model.FailurePermanent, report.Outcomes[0].Failure)
	assert.Equal(t, 1, report.Outcomes[0].Attempts)
}

func TestRun_SuccessAfterTransientRetry(t *testing.T) {
	stub := newStub(model.PlatformYouTube, func(_ context.Context, target model.Target, call int) (*model.Payload, error) {
		if call < 3 {
			return nil, extract.Transientf("slow page")
		}
		return succeed(nil, target, call)
	})
	runner := NewRunner(stub, fastConfig())

	report := runner.Run(context.Background(), targetsFor(model.PlatformYouTube, "https://flaky.example/v"))

	require.Len(t, report.Outcomes, 1)
	assert.True(t, report.Outcomes[0].OK())
	assert.Equal(t, 3, report.Outcomes[0].Attempts)
	assert.Equal(t, 1, report.Succeeded)
}

func TestRun_Idempotent_DeterministicStub(t *testing.T) {
	targets := targetsFor(model.PlatformYouTube,
		"https://a.example/0", "https://b.example/1", "https://c.example/2")
	behavior := func(_ context.Context, target model.Target, _ int) (*model.Payload, error) {
		if target.Index == 1 {
			return nil, extract.Permanentf("removed")
		}
		return succeed(nil, target, 0)
	}

	first := NewRunner(newStub(model.PlatformYouTube, behavior), fastConfig()).Run(context.Background(), targets)
	second := NewRunner(newStub(model.PlatformYouTube, behavior), fastConfig()).Run(context.Background(), targets)

	assert.Equal(t, first.Succeeded, second.Succeeded)
	assert.Equal(t, first.Failed, second.Failed)
	assert.Equal(t, first.Total, second.Total)
	require.Equal(t, len(first.Outcomes), len(second.Outcomes))
	for i := range first.Outcomes {
		assert.Equal(t, first.Outcomes[i].Target, second.Outcomes[i].Target)
		assert.Equal(t, first.Outcomes[i].OK(), second.Outcomes[i].OK())
	}
}

func TestRun_CancelledAfterThreeTargets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stub := newStub(model.PlatformYouTube, nil)
	stub.fn = func(_ context.Context, target model.Target, _ int) (*model.Payload, error) {
		if stub.totalCalls() == 3 {
			cancel()
		}
		return succeed(nil, target, 0)
	}
	runner := NewRunner(stub, fastConfig())

	urls := make([]string, 10)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://a.example/%d", i)
	}
	report := runner.Run(ctx, targetsFor(model.PlatformYouTube, urls...))

	// The in-flight target finished; nothing new was started.
	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, 3, stub.totalCalls())
	assert.True(t, report.Cancelled)
	for i, o := range report.Outcomes {
		assert.Equal(t, i, o.Target.Index)
	}
}

func TestRun_URLMismatchRecordedWithoutInvocation(t *testing.T) {
	stub := newStub(model.PlatformYouTube, succeed)
	cfg := fastConfig()
	cfg.SkipURLCheck = false
	runner := NewRunner(stub, cfg)

	targets := targetsFor(model.PlatformYouTube,
		"https://www.youtube.com/watch?v=good1",
		"https://www.twitch.tv/wrongsite",
		"https://youtu.be/good2")
	report := runner.Run(context.Background(), targets)

	require.Len(t, report.Outcomes, 3)
	assert.True(t, report.Outcomes[0].OK())
	assert.False(t, report.Outcomes[1].OK())
	assert.Equal(t, model.FailurePermanent, report.Outcomes[1].Failure)
	assert.Equal(t, 0, report.Outcomes[1].Attempts)
	assert.True(t, report.Outcomes[2].OK())
	assert.Equal(t, 0, stub.callCount("https://www.twitch.tv/wrongsite"))
}

func TestRun_ConcurrentKeepsInputOrder(t *testing.T) {
	urls := make([]string, 12)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://a.example/%02d", i)
	}
	stub := newStub(model.PlatformYouTube, func(_ context.Context, target model.Target, _ int) (*model.Payload, error) {
		// Reverse the natural completion order.
		time.Sleep(time.Duration(len(urls)-target.Index) * time.Millisecond)
		return succeed(nil, target, 0)
	})
	cfg := fastConfig()
	cfg.Concurrency = 4
	runner := NewRunner(stub, cfg)

	report := runner.Run(context.Background(), targetsFor(model.PlatformYouTube, urls...))

	require.Len(t, report.Outcomes, len(urls))
	for i, o := range report.Outcomes {
		assert.Equal(t, i, o.Target.Index)
	}
	assert.Equal(t, len(urls), report.Succeeded)
}
