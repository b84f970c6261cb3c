package sqlstore

import (
	"context"
	"time"

	"github.com/MrEthical07/staffguard/lockout"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ lockout.Store = (*Store)(nil)

func lockoutUnavailable(err error, op string) error {
	return errors.Wrapf(lockout.ErrUnavailable, "%s: %v", op, err)
}

func (r lockoutRow) toState() lockout.State {
	return lockout.State{
		Failures: r.Failures,
		Locked:   r.Locked,
		LockedAt: fromMillis(r.LockedAt),
	}
}

// IncrementFailures bumps the counter with a single-row UPDATE and locks the
// account with a conditional UPDATE; only the caller whose UPDATE flips the
// flag sees newlyLocked.
func (s *Store) IncrementFailures(ctx context.Context, accountID string, threshold int, now time.Time) (lockout.State, bool, error) {
	var (
		row         lockoutRow
		newlyLocked bool
	)
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&lockoutRow{AccountID: accountID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&lockoutRow{}).
			Where("account_id = ?", accountID).
			Update("failures", gorm.Expr("failures + 1")).Error; err != nil {
			return err
		}
		res := tx.Model(&lockoutRow{}).
			Where("account_id = ? AND locked = ? AND failures >= ?", accountID, false, threshold).
			Updates(map[string]any{"locked": true, "locked_at": toMillis(now)})
		if res.Error != nil {
			return res.Error
		}
		newlyLocked = res.RowsAffected == 1
		return tx.Where("account_id = ?", accountID).First(&row).Error
	})
	if err != nil {
		return lockout.State{}, false, lockoutUnavailable(err, "increment failures")
	}
	return row.toState(), newlyLocked, nil
}

func (s *Store) ResetFailures(ctx context.Context, accountID string) error {
	err := s.conn(ctx).Model(&lockoutRow{}).
		Where("account_id = ? AND locked = ?", accountID, false).
		Update("failures", 0).Error
	if err != nil {
		return lockoutUnavailable(err, "reset failures")
	}
	return nil
}

func (s *Store) Load(ctx context.Context, accountID string) (lockout.State, error) {
	var row lockoutRow
	err := s.conn(ctx).Where("account_id = ?", accountID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lockout.State{}, nil
	}
	if err != nil {
		return lockout.State{}, lockoutUnavailable(err, "load lockout")
	}
	return row.toState(), nil
}

func (s *Store) Unlock(ctx context.Context, accountID string) error {
	if err := s.conn(ctx).Where("account_id = ?", accountID).Delete(&lockoutRow{}).Error; err != nil {
		return lockoutUnavailable(err, "unlock")
	}
	return nil
}
