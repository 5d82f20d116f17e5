package types

import (
	"context"
	"sync"

	"github.com/killallgit/vidsum/internal/database"
	"github.com/killallgit/vidsum/internal/services/processor"
	"github.com/killallgit/vidsum/internal/services/videos"
)

// VideoProcessor runs one video through the pipeline
type VideoProcessor interface {
	Process(ctx context.Context, req processor.Request) (*processor.Outcome, error)
}

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB           *database.DB
	VideoService videos.Service
	Processor    VideoProcessor
	Version      string

	// ProcessLock serializes pipeline runs started over HTTP
	ProcessLock sync.Mutex
}
