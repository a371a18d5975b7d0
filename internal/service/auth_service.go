package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EricNguyen1206/fastify-auth/internal/auth"
	errs "github.com/EricNguyen1206/fastify-auth/internal/errors"
	"github.com/EricNguyen1206/fastify-auth/internal/model"
	"github.com/EricNguyen1206/fastify-auth/internal/repository"
)

// AuthService handles the session lifecycle: signup, signin, token issuance,
// refresh, and revocation.
type AuthService interface {
	Signup(ctx context.Context, email, password, fullName string) (*model.User, error)
	Signin(ctx context.Context, email, password string) (*model.User, error)
	CreateAuthSession(ctx context.Context, user *model.User) (accessToken, refreshToken string, err error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Signout(ctx context.Context, refreshToken string) error
	SignoutAll(ctx context.Context, userID uuid.UUID) (int64, error)
	SweepExpiredSessions(ctx context.Context) (int64, error)
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	roleRepo    repository.RoleRepository
	jwtService  *auth.JWTService
}

// NewAuthService creates a new authentication service. roleRepo may be nil
// when the role extension is not wired in.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	roleRepo repository.RoleRepository,
	jwtService *auth.JWTService,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		roleRepo:    roleRepo,
		jwtService:  jwtService,
	}
}

// Signup registers a new user with a hashed password and assigns the default
// role. The pre-check gives a clean conflict answer; the unique index on email
// closes the race window the pre-check leaves open.
func (s *authService) Signup(ctx context.Context, email, password, fullName string) (*model.User, error) {
	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email existence: %w", err)
	}
	if exists {
		return nil, errs.ErrDuplicateEmail
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.assignDefaultRole(ctx, user.ID)

	return user, nil
}

// assignDefaultRole is best effort: a missing role table must not fail signup.
func (s *authService) assignDefaultRole(ctx context.Context, userID uuid.UUID) {
	if s.roleRepo == nil {
		return
	}
	role, err := s.roleRepo.FindByName(ctx, model.RoleUser)
	if err != nil {
		return
	}
	_ = s.roleRepo.AssignToUser(ctx, userID, role.ID)
}

// Signin verifies credentials. Unknown email and wrong password return the
// identical error, and the unknown-email path still burns a bcrypt comparison
// so the timing profile does not reveal which check failed.
func (s *authService) Signin(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		auth.DummyCompare(password)
		return nil, errs.ErrInvalidCredentials
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, errs.ErrInvalidCredentials
	}

	return user, nil
}

// CreateAuthSession issues an access/refresh token pair and persists a session
// row keyed to the refresh token's digest. Session expiry derives from the
// signer's refresh TTL, so token and session lifetimes cannot drift apart.
func (s *authService) CreateAuthSession(ctx context.Context, user *model.User) (string, string, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return "", "", fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID)
	if err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}

	session := &model.Session{
		UserID:           user.ID,
		RefreshTokenHash: auth.HashToken(refreshToken),
		ExpiresAt:        time.Now().Add(s.jwtService.RefreshTokenTTL()),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", "", fmt.Errorf("create session: %w", err)
	}

	return accessToken, refreshToken, nil
}

// RefreshAccessToken exchanges a live refresh token for a new access token.
// Every failure mode collapses to ErrInvalidToken: a caller must not learn
// whether the signature, the type claim, the session row, or the user check
// was the one that failed. The refresh token and its session are not rotated.
func (s *authService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", errs.ErrInvalidToken
	}

	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return "", errs.ErrInvalidToken
	}
	if claims.TokenType != auth.TokenTypeRefresh {
		return "", errs.ErrInvalidToken
	}

	// A valid signature is not enough: the session row must still exist,
	// belong to the claimed user, and be unexpired.
	if _, err := s.sessionRepo.FindValid(ctx, auth.HashToken(refreshToken), claims.UserID); err != nil {
		return "", errs.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return "", errs.ErrInvalidToken
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Signout revokes the session behind a refresh token. An empty token is a
// no-op and a missing session row is not an error; logout intent never fails.
func (s *authService) Signout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	_, err := s.sessionRepo.DeleteByTokenHash(ctx, auth.HashToken(refreshToken))
	return err
}

// SignoutAll revokes every session of a user.
func (s *authService) SignoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.sessionRepo.DeleteAllForUser(ctx, userID)
}

// SweepExpiredSessions deletes all expired session rows. Run on demand.
func (s *authService) SweepExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx)
}
