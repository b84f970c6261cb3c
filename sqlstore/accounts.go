package sqlstore

import (
	"context"
	"strings"

	"github.com/MrEthical07/staffguard"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var _ staffguard.AccountProvider = (*Store)(nil)

// ErrIdentifierTaken is returned by CreateAccount when the login identifier
// is already registered.
var ErrIdentifierTaken = errors.New("identifier already registered")

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func (r accountRow) toRecord() staffguard.AccountRecord {
	return staffguard.AccountRecord{
		ID:           r.ID,
		Identifier:   r.Identifier,
		PasswordHash: r.PasswordHash,
		Role:         r.Role,
	}
}

// GetAccountByIdentifier looks up an account by its case-insensitive login
// identifier.
func (s *Store) GetAccountByIdentifier(ctx context.Context, identifier string) (staffguard.AccountRecord, error) {
	var row accountRow
	err := s.conn(ctx).Where("identifier = ?", normalizeIdentifier(identifier)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return staffguard.AccountRecord{}, staffguard.ErrAccountNotFound
	}
	if err != nil {
		return staffguard.AccountRecord{}, errors.Wrap(err, "failed find account")
	}
	return row.toRecord(), nil
}

// GetAccount looks up an account by id.
func (s *Store) GetAccount(ctx context.Context, id string) (staffguard.AccountRecord, error) {
	var row accountRow
	err := s.conn(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return staffguard.AccountRecord{}, staffguard.ErrAccountNotFound
	}
	if err != nil {
		return staffguard.AccountRecord{}, errors.Wrap(err, "failed find account")
	}
	return row.toRecord(), nil
}

// CreateAccount registers a staff account. An empty ID is replaced with a
// random UUID. The stored record is returned.
func (s *Store) CreateAccount(ctx context.Context, rec staffguard.AccountRecord) (staffguard.AccountRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Identifier = normalizeIdentifier(rec.Identifier)
	if rec.Identifier == "" || rec.PasswordHash == "" || rec.Role == "" {
		return staffguard.AccountRecord{}, errors.New("identifier, password hash and role are required")
	}

	row := accountRow{
		ID:           rec.ID,
		Identifier:   rec.Identifier,
		PasswordHash: rec.PasswordHash,
		Role:         rec.Role,
	}
	if err := s.conn(ctx).Create(&row).Error; err != nil {
		if _, lookupErr := s.GetAccountByIdentifier(ctx, rec.Identifier); lookupErr == nil {
			return staffguard.AccountRecord{}, ErrIdentifierTaken
		}
		return staffguard.AccountRecord{}, errors.WithMessage(errors.WithStack(err), "failed create account")
	}
	return row.toRecord(), nil
}

// UpdatePasswordHash replaces the stored hash, for rehash-on-login upgrades
// and administrative resets.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res := s.conn(ctx).Model(&accountRow{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return errors.WithStack(res.Error)
	}
	if res.RowsAffected == 0 {
		return staffguard.ErrAccountNotFound
	}
	return nil
}
