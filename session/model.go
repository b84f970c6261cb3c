package session

import (
	"sort"
	"time"
)

// Session is one authenticated staff login.
//
// Seq is assigned by the store on creation and increases monotonically; it
// orders sessions whose LastActivityAt values are equal.
type Session struct {
	ID             string
	OwnerID        string
	CreatedAt      time.Time
	LastActivityAt time.Time
	IPAddress      string
	UserAgent      string
	Seq            uint64
}

// Metadata is the request information recorded when a session is created.
type Metadata struct {
	IPAddress string
	UserAgent string
}

// Clone returns a copy that shares no state with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// SortOldestFirst orders sessions by LastActivityAt ascending, then Seq ascending.
func SortOldestFirst(sessions []*Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.LastActivityAt.Equal(b.LastActivityAt) {
			return a.LastActivityAt.Before(b.LastActivityAt)
		}
		return a.Seq < b.Seq
	})
}
