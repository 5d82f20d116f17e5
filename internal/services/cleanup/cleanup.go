// Package cleanup sweeps stale audio leftovers from the cache directory.
package cleanup

import (
	"context"
	"os"
	"time"

	"github.com/killallgit/vidsum/pkg/download"
	"github.com/rs/zerolog"
)

// DefaultPatterns match the run directories and loose artifacts the audio
// pipeline creates
var DefaultPatterns = []string{"run_*", "*_compressed.mp3", "audio_*"}

// Service removes entries older than maxAge from a directory
type Service struct {
	dir      string
	maxAge   time.Duration
	patterns []string
	cancel   context.CancelFunc
}

// NewService creates a new cleanup service. No patterns means DefaultPatterns.
func NewService(dir string, maxAge time.Duration, patterns ...string) *Service {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Service{dir: dir, maxAge: maxAge, patterns: patterns}
}

// Sweep removes stale entries once and returns how many were removed
func (s *Service) Sweep(ctx context.Context) (int, error) {
	logger := zerolog.Ctx(ctx)

	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return 0, nil
	}

	var total int
	for _, pattern := range s.patterns {
		removed, err := download.CleanupOldTempFiles(s.dir, pattern, s.maxAge)
		if err != nil {
			logger.Error().Err(err).Str("pattern", pattern).Msg("cleanup sweep failed")
			return total, err
		}
		total += removed
	}

	if total > 0 {
		logger.Info().Int("removed", total).Str("dir", s.dir).Msg("removed stale audio artifacts")
	}
	return total, nil
}

// Start sweeps immediately and then every interval until Stop or ctx ends
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	_, _ = s.Sweep(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_, _ = s.Sweep(ctx)
			case <-ctx.Done():
				zerolog.Ctx(ctx).Info().Msg("cleanup service stopped")
				return
			}
		}
	}()

	zerolog.Ctx(ctx).Info().
		Dur("interval", interval).
		Dur("max_age", s.maxAge).
		Msg("cleanup service started")
}

// Stop stops the cleanup service
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}
