package extract

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrProfileUnavailable marks an unusable browser profile root. Fatal before
// any extraction starts.
var ErrProfileUnavailable = eris.New("browser profile unavailable")

// SessionConfig controls the shared browser session.
type SessionConfig struct {
	// ProfileDir is the browser profile root for authenticated extraction.
	// Empty means a throwaway default profile.
	ProfileDir string
	// Headless toggles headless mode; on by default.
	Headless bool
	// Settle is how long a page is given to finish rendering dynamic
	// content after navigation.
	Settle time.Duration
}

// Session owns the browser the extractors drive. The underlying profile is a
// single mutable resource, so page work is serialized by mutex: one
// extraction holds the browser at a time regardless of runner concurrency.
type Session struct {
	mu     sync.Mutex
	settle time.Duration

	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewSession validates the profile root and prepares the browser allocator.
// The browser process itself starts lazily on the first Run.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.ProfileDir != "" {
		info, err := os.Stat(cfg.ProfileDir)
		if err != nil {
			return nil, eris.Wrapf(ErrProfileUnavailable, "stat %s: %v", cfg.ProfileDir, err)
		}
		if !info.IsDir() {
			return nil, eris.Wrapf(ErrProfileUnavailable, "%s is not a directory", cfg.ProfileDir)
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("mute-audio", true),
	)
	if cfg.ProfileDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.ProfileDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	settle := cfg.Settle
	if settle <= 0 {
		settle = 9 * time.Second
	}

	return &Session{
		settle:      settle,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Start launches the browser and verifies it is usable. A failure here is an
// environment error, not a per-target one.
func (s *Session) Start(ctx context.Context) error {
	err := s.Run(ctx, 30*time.Second, chromedp.Navigate("about:blank"))
	if err != nil {
		return eris.Wrap(err, "session: launch browser")
	}
	zap.L().Debug("browser session ready")
	return nil
}

// Run executes actions in a fresh tab sharing the session profile. Calls are
// serialized; the tab lives at most timeout. The tab is deliberately detached
// from ctx cancellation so an in-flight extraction finishes or times out on
// its own, but no new tab is opened once ctx is done.
func (s *Session) Run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(s.allocCtx)
	defer cancel()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	return chromedp.Run(tabCtx, actions...)
}

// SettleAction pauses long enough for dynamically rendered content to appear.
func (s *Session) SettleAction() chromedp.Action {
	return chromedp.Sleep(s.settle)
}

// Close tears the browser down. Safe to call after cancellation.
func (s *Session) Close() {
	s.allocCancel()
}
