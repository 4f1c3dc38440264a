package model

import "time"

// Session is a logged-in user. At most one live session exists per user;
// re-login extends it and keeps the token.
type Session struct {
	Token      []byte    `gorm:"type:bytea;primaryKey" json:"-"`
	UserID     int       `gorm:"uniqueIndex;not null" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Expiration time.Time `gorm:"not null;index" json:"expiration"`
}

func (Session) TableName() string {
	return "logged_in_users"
}

// Expired reports whether the session is past its expiration at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.Expiration)
}
