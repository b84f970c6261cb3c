package sqlstore

// sessionRow mirrors the reference sessions table. Seq is the insertion
// order used to break last_activity ties.
type sessionRow struct {
	Seq          uint64 `gorm:"column:seq;primaryKey;autoIncrement"`
	ID           string `gorm:"column:id;size:64;uniqueIndex;not null"`
	UserID       string `gorm:"column:user_id;size:64;index;not null"`
	IPAddress    string `gorm:"column:ip_address;size:64"`
	UserAgent    string `gorm:"column:user_agent;size:255"`
	Payload      string `gorm:"column:payload;type:text"`
	CreatedAt    int64  `gorm:"column:created_at;autoCreateTime:false;not null"`
	LastActivity int64  `gorm:"column:last_activity;index;not null"`
}

func (sessionRow) TableName() string { return "sessions" }

type lockoutRow struct {
	AccountID string `gorm:"column:account_id;size:64;primaryKey"`
	Failures  int    `gorm:"column:failures;not null;default:0"`
	Locked    bool   `gorm:"column:locked;not null;default:false"`
	LockedAt  int64  `gorm:"column:locked_at;not null;default:0"`
}

func (lockoutRow) TableName() string { return "account_lockouts" }

type accountRow struct {
	ID           string `gorm:"column:id;size:64;primaryKey"`
	Identifier   string `gorm:"column:identifier;size:191;uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;size:255;not null"`
	Role         string `gorm:"column:role;size:32;not null"`
	CreatedAt    int64  `gorm:"column:created_at;autoCreateTime:milli"`
}

func (accountRow) TableName() string { return "staff_accounts" }
