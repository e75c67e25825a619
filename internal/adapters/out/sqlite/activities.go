package sqlite

import (
	"context"
	"database/sql"

	"github.com/bnema/dockyard/internal/domain"
)

// AppendActivity inserts an activity and sets its ID. Activities are never
// updated.
func (s *Store) AppendActivity(ctx context.Context, activity *domain.Activity) error {
	createdAt := s.now(activity.CreatedAt)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (key, owner_id, trackable_type, trackable_id, recipient_type, recipient_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		activity.Key, activity.OwnerID,
		activity.TrackableType, activity.TrackableID,
		activity.RecipientType, activity.RecipientID,
		toMillis(createdAt))
	if err != nil {
		return translate(err, "append activity "+activity.Key)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate(err, "append activity "+activity.Key)
	}
	activity.ID = id
	activity.CreatedAt = createdAt
	return nil
}

// RecentActivities returns up to limit activities, newest first. Names of
// entities deleted since the activity was recorded come back empty.
func (s *Store) RecentActivities(ctx context.Context, limit int) ([]domain.ActivityView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.key, a.owner_id, a.trackable_type, a.trackable_id,
		       a.recipient_type, a.recipient_id, a.created_at,
		       u.username, r.name, t.name
		FROM activities a
		LEFT JOIN users u ON u.id = a.owner_id
		LEFT JOIN repositories r ON a.trackable_type = 'repository' AND r.id = a.trackable_id
		LEFT JOIN tags t ON a.recipient_type = 'tag' AND t.id = a.recipient_id
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, translate(err, "list activities")
	}
	defer rows.Close()

	var views []domain.ActivityView
	for rows.Next() {
		var (
			v                domain.ActivityView
			createdAt        int64
			owner, repo, tag sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.Key, &v.OwnerID, &v.TrackableType, &v.TrackableID,
			&v.RecipientType, &v.RecipientID, &createdAt, &owner, &repo, &tag); err != nil {
			return nil, translate(err, "scan activity")
		}
		v.CreatedAt = fromMillis(createdAt)
		v.Owner = owner.String
		v.Repository = repo.String
		v.Tag = tag.String
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list activities")
	}
	return views, nil
}
