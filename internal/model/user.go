package model

// User is an account allowed to log in. The id is assigned by the credential
// store (max existing id + 1) rather than by the database.
type User struct {
	ID           int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username     string `gorm:"type:varchar(32);uniqueIndex;not null" json:"username"`
	PasswordHash []byte `gorm:"type:bytea;not null" json:"-"`
	Salt         []byte `gorm:"type:bytea;not null" json:"-"`
	Timestamps
}

// UserResponse is used for API responses (without credentials)
type UserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username}
}
