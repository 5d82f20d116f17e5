package publish

import (
	"context"
	"time"

	"github.com/killallgit/vidsum/internal/models"
	"github.com/killallgit/vidsum/internal/services/notion"
	apperrors "github.com/killallgit/vidsum/pkg/errors"
	"github.com/rs/zerolog"
)

// RemoteLookup is the remote store as seen by the reconciler
type RemoteLookup interface {
	RemoteStore
	FindPage(ctx context.Context, url string) (string, error)
	RepairBody(ctx context.Context, pageID, body string) (int, error)
}

// UnsyncedStore lists and flags local records missing from the remote store
type UnsyncedStore interface {
	ListUnsynced(ctx context.Context) ([]models.VideoRecord, error)
	MarkSynced(ctx context.Context, videoID string) error
}

// ReconcileSummary counts the outcome of one reconcile pass
type ReconcileSummary struct {
	Checked        int `json:"checked"`
	AlreadyPresent int `json:"already_present"`
	Created        int `json:"created"`
	Repaired       int `json:"repaired"`
	Failed         int `json:"failed"`
}

type reconcileResult int

const (
	resultPresent reconcileResult = iota
	resultCreated
	resultRepaired
)

// Reconciler creates remote pages for local records whose remote write failed
type Reconciler struct {
	remote        RemoteLookup
	local         UnsyncedStore
	remoteTimeout time.Duration
}

// NewReconciler creates a new reconciler
func NewReconciler(remote RemoteLookup, local UnsyncedStore, remoteTimeout time.Duration) *Reconciler {
	return &Reconciler{remote: remote, local: local, remoteTimeout: remoteTimeout}
}

// Run makes one pass over unsynced records. Each record is checked by URL
// first so a page created out of band is not duplicated. An existing page
// with fewer blocks than its summary file has the missing blocks appended.
func (r *Reconciler) Run(ctx context.Context) (*ReconcileSummary, error) {
	if r.remote == nil || !r.remote.Configured() {
		return nil, notion.ErrNotConfigured
	}

	records, err := r.local.ListUnsynced(ctx)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	summary := &ReconcileSummary{}
	for _, record := range records {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		summary.Checked++

		result, err := r.reconcile(ctx, record)
		if err != nil {
			summary.Failed++
			logger.Error().Err(err).Str("video_id", record.VideoID).Msg("reconcile failed")
			continue
		}
		switch result {
		case resultCreated:
			summary.Created++
		case resultRepaired:
			summary.Repaired++
		default:
			summary.AlreadyPresent++
		}
	}

	return summary, nil
}

func (r *Reconciler) reconcile(ctx context.Context, record models.VideoRecord) (reconcileResult, error) {
	doc, err := ReadSummary(record.SummaryPath)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeNotFound, "summary file unavailable").
			WithDetail("path", record.SummaryPath)
	}

	url := record.URL
	if url == "" {
		url = doc.URL
	}

	remoteCtx, cancel := r.withTimeout(ctx)
	pageID, err := r.remote.FindPage(remoteCtx, url)
	cancel()
	if err != nil {
		return 0, err
	}

	result := resultPresent
	if pageID == "" {
		date := doc.Date
		if date == "" {
			date = record.ProcessedAt().Format(dateLayout)
		}

		remoteCtx, cancel := r.withTimeout(ctx)
		_, err = r.remote.CreatePage(remoteCtx, notion.Page{
			Title:    doc.Title,
			URL:      url,
			Platform: string(record.Platform),
			Date:     date,
			Body:     doc.Body,
		})
		cancel()
		if err != nil {
			return 0, err
		}
		result = resultCreated
	} else {
		remoteCtx, cancel := r.withTimeout(ctx)
		appended, err := r.remote.RepairBody(remoteCtx, pageID, doc.Body)
		cancel()
		if err != nil {
			return 0, err
		}
		if appended > 0 {
			result = resultRepaired
		}
	}

	if err := r.local.MarkSynced(ctx, record.VideoID); err != nil {
		return 0, err
	}
	return result, nil
}

func (r *Reconciler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.remoteTimeout > 0 {
		return context.WithTimeout(ctx, r.remoteTimeout)
	}
	return context.WithCancel(ctx)
}
