// Package activity appends entries to the audit trail.
package activity

import (
	"context"
	"time"

	"github.com/bnema/zerowrap"

	"github.com/bnema/dockyard/internal/boundaries/out"
	"github.com/bnema/dockyard/internal/domain"
)

// Recorder writes activity records. Recording is best effort: a failure is
// logged and reported to the caller but never undoes the change it
// describes.
type Recorder struct {
	store out.ActivityStore
	nowFn func() time.Time
}

// NewRecorder creates an activity recorder.
func NewRecorder(store out.ActivityStore) *Recorder {
	return &Recorder{
		store: store,
		nowFn: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// RecordPush records that owner pushed tag into repo.
func (r *Recorder) RecordPush(ctx context.Context, owner *domain.User, repo *domain.Repository, tag *domain.Tag) error {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "RecordPush",
		zerowrap.FieldAction:  domain.ActivityKeyRepositoryPush,
	})
	log := zerowrap.FromCtx(ctx)

	entry := &domain.Activity{
		Key:           domain.ActivityKeyRepositoryPush,
		OwnerID:       owner.ID,
		TrackableType: domain.EntityRepository,
		TrackableID:   repo.ID,
		RecipientType: domain.EntityTag,
		RecipientID:   tag.ID,
		CreatedAt:     r.nowFn(),
	}

	if err := r.store.AppendActivity(ctx, entry); err != nil {
		log.Warn().
			Err(err).
			Int64("repository_id", repo.ID).
			Int64("tag_id", tag.ID).
			Msg("failed to record push activity")
		return err
	}

	log.Debug().Int64(zerowrap.FieldEntityID, entry.ID).Msg("push activity recorded")
	return nil
}

// Recent returns up to limit activities, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]domain.ActivityView, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "RecentActivities",
	})
	log := zerowrap.FromCtx(ctx)

	if limit <= 0 {
		limit = 50
	}

	views, err := r.store.RecentActivities(ctx, limit)
	if err != nil {
		return nil, log.WrapErr(err, "failed to list activities")
	}
	return views, nil
}
