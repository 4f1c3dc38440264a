package repository

import (
	"context"
	"time"

	"biro-server/internal/model"

	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindByToken(ctx context.Context, token []byte) (*model.Session, error)
	FindByUserID(ctx context.Context, userID int) (*model.Session, error)
	UpdateExpiration(ctx context.Context, token []byte, expiration time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(session).Error)
}

// FindByToken loads the session with its user.
func (r *sessionRepo) FindByToken(ctx context.Context, token []byte) (*model.Session, error) {
	var session model.Session
	if err := r.db.WithContext(ctx).Preload("User").Where("token = ?", token).Take(&session).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (r *sessionRepo) FindByUserID(ctx context.Context, userID int) (*model.Session, error) {
	var session model.Session
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&session).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

// UpdateExpiration returns ErrNotFound when no session holds the token.
func (r *sessionRepo) UpdateExpiration(ctx context.Context, token []byte, expiration time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("token = ?", token).
		Update("expiration", expiration)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expiration <= ?", now).Delete(&model.Session{})
	return res.RowsAffected, translate(res.Error)
}

func (r *sessionRepo) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Session{}).Where("expiration > ?", now).Count(&count).Error
	return count, translate(err)
}
