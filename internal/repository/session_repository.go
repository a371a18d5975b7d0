package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EricNguyen1206/fastify-auth/internal/model"
)

// SessionRepository defines session persistence operations. Every token
// parameter is the SHA-256 digest of the raw refresh token, never the token
// itself.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	FindValid(ctx context.Context, tokenHash string, userID uuid.UUID) (*model.Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error)
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository builds a GORM-backed session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindValid returns the session only when the token hash matches, the session
// belongs to userID, and it has not expired. The ownership check is what
// rejects a leaked token whose signature still verifies.
func (r *sessionRepository) FindValid(ctx context.Context, tokenHash string, userID uuid.UUID) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Where("refresh_token_hash = ? AND user_id = ? AND expires_at > ?", tokenHash, userID, time.Now()).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteByTokenHash removes the session for a token. Deleting a token that
// has no session is not an error; the count says whether anything happened.
func (r *sessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error) {
	res := r.db.WithContext(ctx).Where("refresh_token_hash = ?", tokenHash).Delete(&model.Session{})
	return res.RowsAffected, res.Error
}

// DeleteAllForUser revokes every session of a user ("log out everywhere").
func (r *sessionRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Session{})
	return res.RowsAffected, res.Error
}

// DeleteExpired sweeps all expired sessions in a single atomic delete-where,
// so it is safe to run concurrently with create/find.
func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&model.Session{})
	return res.RowsAffected, res.Error
}
