package sqlstore

import (
	"context"
	"time"

	"github.com/MrEthical07/staffguard/session"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var _ session.Store = (*Store)(nil)

func sessionUnavailable(err error, op string) error {
	return errors.Wrapf(session.ErrUnavailable, "%s: %v", op, err)
}

func (r sessionRow) toSession() *session.Session {
	return &session.Session{
		ID:             r.ID,
		OwnerID:        r.UserID,
		CreatedAt:      fromMillis(r.CreatedAt),
		LastActivityAt: fromMillis(r.LastActivity),
		IPAddress:      r.IPAddress,
		UserAgent:      r.UserAgent,
		Seq:            r.Seq,
	}
}

func (s *Store) sessionExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&sessionRow{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (s *Store) Create(ctx context.Context, id, ownerID string, meta session.Metadata, now time.Time) (*session.Session, error) {
	row := sessionRow{
		ID:           id,
		UserID:       ownerID,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		CreatedAt:    toMillis(now),
		LastActivity: toMillis(now),
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		// Drivers report unique violations differently; a row that exists
		// after a failed insert is a collision.
		exists, lookupErr := s.sessionExists(ctx, id)
		if lookupErr == nil && exists {
			return nil, session.ErrDuplicateSessionID
		}
		return nil, sessionUnavailable(err, "create session")
	}
	return row.toSession(), nil
}

func (s *Store) Touch(ctx context.Context, id string, now time.Time) error {
	res := s.conn(ctx).Model(&sessionRow{}).
		Where("id = ? AND last_activity < ?", id, toMillis(now)).
		Update("last_activity", toMillis(now))
	if res.Error != nil {
		return sessionUnavailable(res.Error, "touch session")
	}
	if res.RowsAffected > 0 {
		return nil
	}
	exists, err := s.sessionExists(ctx, id)
	if err != nil {
		return sessionUnavailable(err, "touch session")
	}
	if !exists {
		return session.ErrNotFound
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	var row sessionRow
	err := s.conn(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, sessionUnavailable(err, "get session")
	}
	return row.toSession(), nil
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]*session.Session, error) {
	var rows []sessionRow
	err := s.conn(ctx).
		Where("user_id = ?", ownerID).
		Order("last_activity ASC").
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, sessionUnavailable(err, "list sessions")
	}
	out := make([]*session.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toSession())
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.conn(ctx).Where("id = ?", id).Delete(&sessionRow{}).Error; err != nil {
		return sessionUnavailable(err, "delete session")
	}
	return nil
}

func (s *Store) DeleteByOwnerExcept(ctx context.Context, ownerID, keepID string) (int, error) {
	q := s.conn(ctx).Where("user_id = ?", ownerID)
	if keepID != "" {
		q = q.Where("id <> ?", keepID)
	}
	res := q.Delete(&sessionRow{})
	if res.Error != nil {
		return 0, sessionUnavailable(res.Error, "delete owner sessions")
	}
	return int(res.RowsAffected), nil
}

// DeleteIdleBefore removes sessions whose last activity is older than
// cutoff and returns how many were removed. Hosts call it periodically to
// reclaim rows that were never checked again.
func (s *Store) DeleteIdleBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res := s.conn(ctx).Where("last_activity < ?", toMillis(cutoff)).Delete(&sessionRow{})
	if res.Error != nil {
		return 0, sessionUnavailable(res.Error, "sweep sessions")
	}
	return int(res.RowsAffected), nil
}
