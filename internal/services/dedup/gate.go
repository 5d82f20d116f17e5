// Package dedup decides whether a video was already handled by consulting
// the remote Notion database first and the local store second.
package dedup

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RemoteStore is the remote record store keyed by URL
type RemoteStore interface {
	Configured() bool
	FindByURL(ctx context.Context, url string) (bool, error)
}

// LocalStore is the local record store keyed by video id
type LocalStore interface {
	IsProcessed(ctx context.Context, videoID string) (bool, error)
}

// Source names the store that produced a hit
type Source string

const (
	SourceNone   Source = ""
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Gate is the read-only duplicate check run before any extraction work
type Gate struct {
	remote        RemoteStore
	local         LocalStore
	remoteTimeout time.Duration
}

// NewGate creates a gate. remote may be nil when no remote store is used.
func NewGate(remote RemoteStore, local LocalStore, remoteTimeout time.Duration) *Gate {
	return &Gate{remote: remote, local: local, remoteTimeout: remoteTimeout}
}

// AlreadyProcessed reports whether either store knows the video
func (g *Gate) AlreadyProcessed(ctx context.Context, url, videoID string) bool {
	return g.Check(ctx, url, videoID) != SourceNone
}

// Check returns the first store holding a record for the video. Store
// failures count as "not found" so an unreachable remote never blocks work.
func (g *Gate) Check(ctx context.Context, url, videoID string) Source {
	logger := zerolog.Ctx(ctx).With().Str("url", url).Str("video_id", videoID).Logger()

	if g.remoteFound(ctx, logger, url) {
		logger.Info().Msg("video already recorded in remote store")
		return SourceRemote
	}

	if g.local != nil && videoID != "" {
		found, err := g.local.IsProcessed(ctx, videoID)
		if err != nil {
			logger.Warn().Err(err).Msg("local dedup check failed, treating as not found")
		} else if found {
			logger.Info().Msg("video already recorded in local store")
			return SourceLocal
		}
	}

	return SourceNone
}

func (g *Gate) remoteFound(ctx context.Context, logger zerolog.Logger, url string) bool {
	if g.remote == nil || url == "" {
		return false
	}
	if !g.remote.Configured() {
		logger.Debug().Msg("remote store not configured, skipping remote dedup check")
		return false
	}

	if g.remoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.remoteTimeout)
		defer cancel()
	}

	found, err := g.remote.FindByURL(ctx, url)
	if err != nil {
		logger.Warn().Err(err).Msg("remote dedup check failed, treating as not found")
		return false
	}
	return found
}
