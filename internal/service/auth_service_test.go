package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/EricNguyen1206/fastify-auth/internal/auth"
	errs "github.com/EricNguyen1206/fastify-auth/internal/errors"
	"github.com/EricNguyen1206/fastify-auth/internal/model"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*model.User, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockSessionRepository is a mock implementation of SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *model.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) FindValid(ctx context.Context, tokenHash string, userID uuid.UUID) (*model.Session, error) {
	args := m.Called(ctx, tokenHash, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *MockSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) (int64, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockRoleRepository is a mock implementation of RoleRepository.
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Role), args.Error(1)
}

func (m *MockRoleRepository) AssignToUser(ctx context.Context, userID, roleID uuid.UUID) error {
	args := m.Called(ctx, userID, roleID)
	return args.Error(0)
}

func (m *MockRoleRepository) GetUserRoles(ctx context.Context, userID uuid.UUID) ([]model.UserRole, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserRole), args.Error(1)
}

func (m *MockRoleRepository) EnsureDefaultRoles(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestAuthService_Signup(t *testing.T) {
	roleID := uuid.New()

	tests := []struct {
		name          string
		email         string
		password      string
		fullName      string
		setupMock     func(*MockUserRepository, *MockRoleRepository)
		expectedError error
	}{
		{
			name:     "successful signup",
			email:    "a@x.com",
			password: "Passw0rd!",
			fullName: "A B",
			setupMock: func(mUser *MockUserRepository, mRole *MockRoleRepository) {
				mUser.On("EmailExists", mock.Anything, "a@x.com").Return(false, nil)
				mUser.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				mRole.On("FindByName", mock.Anything, model.RoleUser).Return(&model.Role{ID: roleID, Name: model.RoleUser}, nil)
				mRole.On("AssignToUser", mock.Anything, mock.Anything, roleID).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:     "duplicate email caught by pre-check",
			email:    "existing@x.com",
			password: "Passw0rd!",
			fullName: "Existing",
			setupMock: func(mUser *MockUserRepository, mRole *MockRoleRepository) {
				mUser.On("EmailExists", mock.Anything, "existing@x.com").Return(true, nil)
			},
			expectedError: errs.ErrDuplicateEmail,
		},
		{
			name:     "duplicate email caught by unique constraint",
			email:    "racing@x.com",
			password: "Passw0rd!",
			fullName: "Racer",
			setupMock: func(mUser *MockUserRepository, mRole *MockRoleRepository) {
				// a concurrent signup slipped between the pre-check and the insert
				mUser.On("EmailExists", mock.Anything, "racing@x.com").Return(false, nil)
				mUser.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: errs.ErrDuplicateEmail,
		},
		{
			name:     "missing default role does not fail signup",
			email:    "b@x.com",
			password: "Passw0rd!",
			fullName: "B C",
			setupMock: func(mUser *MockUserRepository, mRole *MockRoleRepository) {
				mUser.On("EmailExists", mock.Anything, "b@x.com").Return(false, nil)
				mUser.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				mRole.On("FindByName", mock.Anything, model.RoleUser).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserRepo := new(MockUserRepository)
			mockSessionRepo := new(MockSessionRepository)
			mockRoleRepo := new(MockRoleRepository)
			tt.setupMock(mockUserRepo, mockRoleRepo)

			svc := NewAuthService(mockUserRepo, mockSessionRepo, mockRoleRepo, newTestJWTService())
			user, err := svc.Signup(context.Background(), tt.email, tt.password, tt.fullName)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.Equal(t, tt.email, user.Email)
				assert.Equal(t, tt.fullName, user.FullName)
				assert.True(t, user.IsActive)
				assert.NotEmpty(t, user.PasswordHash)
				assert.NotEqual(t, tt.password, user.PasswordHash)
			}

			mockUserRepo.AssertExpectations(t)
			mockRoleRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Signin(t *testing.T) {
	hash, err := auth.HashPassword("Passw0rd!")
	assert.NoError(t, err)
	userID := uuid.New()

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful signin",
			email:    "a@x.com",
			password: "Passw0rd!",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{
					ID:           userID,
					Email:        "a@x.com",
					PasswordHash: hash,
					IsActive:     true,
				}, nil)
			},
			expectedError: nil,
		},
		{
			name:     "unknown email",
			email:    "nobody@x.com",
			password: "Passw0rd!",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "nobody@x.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: errs.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "a@x.com",
			password: "wrong-password",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{
					ID:           userID,
					Email:        "a@x.com",
					PasswordHash: hash,
					IsActive:     true,
				}, nil)
			},
			expectedError: errs.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserRepo := new(MockUserRepository)
			tt.setupMock(mockUserRepo)

			svc := NewAuthService(mockUserRepo, new(MockSessionRepository), new(MockRoleRepository), newTestJWTService())
			user, err := svc.Signin(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, user)
				assert.Equal(t, tt.email, user.Email)
			}

			mockUserRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_SigninErrorsAreIndistinguishable(t *testing.T) {
	hash, err := auth.HashPassword("Passw0rd!")
	assert.NoError(t, err)

	mockUserRepo := new(MockUserRepository)
	mockUserRepo.On("FindByEmail", mock.Anything, "nobody@x.com").Return(nil, gorm.ErrRecordNotFound)
	mockUserRepo.On("FindByEmail", mock.Anything, "a@x.com").Return(&model.User{
		ID:           uuid.New(),
		Email:        "a@x.com",
		PasswordHash: hash,
	}, nil)

	svc := NewAuthService(mockUserRepo, new(MockSessionRepository), new(MockRoleRepository), newTestJWTService())

	_, unknownEmailErr := svc.Signin(context.Background(), "nobody@x.com", "Passw0rd!")
	_, wrongPasswordErr := svc.Signin(context.Background(), "a@x.com", "wrong-password")

	// identical error object, identical message: no enumeration oracle
	assert.Equal(t, unknownEmailErr, wrongPasswordErr)
	assert.Equal(t, unknownEmailErr.Error(), wrongPasswordErr.Error())
}

func TestAuthService_CreateAuthSession(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "a@x.com", IsActive: true}
	jwtService := newTestJWTService()

	var created *model.Session
	mockSessionRepo := new(MockSessionRepository)
	mockSessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Session")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*model.Session)
		}).Return(nil)

	svc := NewAuthService(new(MockUserRepository), mockSessionRepo, new(MockRoleRepository), jwtService)

	accessToken, refreshToken, err := svc.CreateAuthSession(context.Background(), user)
	assert.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)

	// the session row stores the digest, not the raw token
	assert.NotNil(t, created)
	assert.Equal(t, user.ID, created.UserID)
	assert.Equal(t, auth.HashToken(refreshToken), created.RefreshTokenHash)
	assert.NotEqual(t, refreshToken, created.RefreshTokenHash)
	assert.WithinDuration(t, time.Now().Add(jwtService.RefreshTokenTTL()), created.ExpiresAt, 5*time.Second)

	mockSessionRepo.AssertExpectations(t)
}

func TestAuthService_RefreshAccessToken(t *testing.T) {
	jwtService := newTestJWTService()
	userID := uuid.New()
	user := &model.User{ID: userID, Email: "a@x.com", IsActive: true}

	refreshToken, err := jwtService.GenerateRefreshToken(userID)
	assert.NoError(t, err)
	accessToken, err := jwtService.GenerateAccessToken(userID, "a@x.com")
	assert.NoError(t, err)

	expiredSigner := auth.NewJWTService("test-secret", -time.Minute, -time.Minute)
	expiredRefreshToken, err := expiredSigner.GenerateRefreshToken(userID)
	assert.NoError(t, err)

	tests := []struct {
		name          string
		token         string
		setupMock     func(*MockUserRepository, *MockSessionRepository)
		expectedError error
	}{
		{
			name:  "successful refresh",
			token: refreshToken,
			setupMock: func(mUser *MockUserRepository, mSession *MockSessionRepository) {
				mSession.On("FindValid", mock.Anything, auth.HashToken(refreshToken), userID).
					Return(&model.Session{UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}, nil)
				mUser.On("FindByID", mock.Anything, userID).Return(user, nil)
			},
			expectedError: nil,
		},
		{
			name:          "empty token",
			token:         "",
			setupMock:     func(*MockUserRepository, *MockSessionRepository) {},
			expectedError: errs.ErrInvalidToken,
		},
		{
			name:          "access token used as refresh token",
			token:         accessToken,
			setupMock:     func(*MockUserRepository, *MockSessionRepository) {},
			expectedError: errs.ErrInvalidToken,
		},
		{
			name:          "expired refresh token",
			token:         expiredRefreshToken,
			setupMock:     func(*MockUserRepository, *MockSessionRepository) {},
			expectedError: errs.ErrInvalidToken,
		},
		{
			name:          "malformed token",
			token:         "not-a-jwt",
			setupMock:     func(*MockUserRepository, *MockSessionRepository) {},
			expectedError: errs.ErrInvalidToken,
		},
		{
			name:  "session deleted",
			token: refreshToken,
			setupMock: func(mUser *MockUserRepository, mSession *MockSessionRepository) {
				mSession.On("FindValid", mock.Anything, auth.HashToken(refreshToken), userID).
					Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: errs.ErrInvalidToken,
		},
		{
			name:  "user deactivated",
			token: refreshToken,
			setupMock: func(mUser *MockUserRepository, mSession *MockSessionRepository) {
				mSession.On("FindValid", mock.Anything, auth.HashToken(refreshToken), userID).
					Return(&model.Session{UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}, nil)
				mUser.On("FindByID", mock.Anything, userID).Return(&model.User{ID: userID, IsActive: false}, nil)
			},
			expectedError: errs.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserRepo := new(MockUserRepository)
			mockSessionRepo := new(MockSessionRepository)
			tt.setupMock(mockUserRepo, mockSessionRepo)

			svc := NewAuthService(mockUserRepo, mockSessionRepo, new(MockRoleRepository), jwtService)
			newAccessToken, err := svc.RefreshAccessToken(context.Background(), tt.token)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError, err)
				assert.Empty(t, newAccessToken)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, newAccessToken)
				assert.NotEqual(t, tt.token, newAccessToken)
				// no rotation: the session row was only read, never deleted
				mockSessionRepo.AssertNotCalled(t, "DeleteByTokenHash", mock.Anything, mock.Anything)
				mockSessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}

			mockUserRepo.AssertExpectations(t)
			mockSessionRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_RefreshTokenRemainsUsableAfterRefresh(t *testing.T) {
	jwtService := newTestJWTService()
	userID := uuid.New()
	user := &model.User{ID: userID, Email: "a@x.com", IsActive: true}

	refreshToken, err := jwtService.GenerateRefreshToken(userID)
	assert.NoError(t, err)

	mockUserRepo := new(MockUserRepository)
	mockSessionRepo := new(MockSessionRepository)
	mockSessionRepo.On("FindValid", mock.Anything, auth.HashToken(refreshToken), userID).
		Return(&model.Session{UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}, nil).Twice()
	mockUserRepo.On("FindByID", mock.Anything, userID).Return(user, nil).Twice()

	svc := NewAuthService(mockUserRepo, mockSessionRepo, new(MockRoleRepository), jwtService)

	first, err := svc.RefreshAccessToken(context.Background(), refreshToken)
	assert.NoError(t, err)
	second, err := svc.RefreshAccessToken(context.Background(), refreshToken)
	assert.NoError(t, err)
	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)

	mockSessionRepo.AssertExpectations(t)
}

func TestAuthService_Signout(t *testing.T) {
	t.Run("empty token is a no-op", func(t *testing.T) {
		mockSessionRepo := new(MockSessionRepository)
		svc := NewAuthService(new(MockUserRepository), mockSessionRepo, new(MockRoleRepository), newTestJWTService())

		err := svc.Signout(context.Background(), "")
		assert.NoError(t, err)
		mockSessionRepo.AssertNotCalled(t, "DeleteByTokenHash", mock.Anything, mock.Anything)
	})

	t.Run("deletes the session by token digest", func(t *testing.T) {
		mockSessionRepo := new(MockSessionRepository)
		mockSessionRepo.On("DeleteByTokenHash", mock.Anything, auth.HashToken("some-token")).Return(int64(1), nil)

		svc := NewAuthService(new(MockUserRepository), mockSessionRepo, new(MockRoleRepository), newTestJWTService())
		err := svc.Signout(context.Background(), "some-token")
		assert.NoError(t, err)
		mockSessionRepo.AssertExpectations(t)
	})

	t.Run("missing session is not an error", func(t *testing.T) {
		mockSessionRepo := new(MockSessionRepository)
		mockSessionRepo.On("DeleteByTokenHash", mock.Anything, mock.Anything).Return(int64(0), nil)

		svc := NewAuthService(new(MockUserRepository), mockSessionRepo, new(MockRoleRepository), newTestJWTService())
		err := svc.Signout(context.Background(), "already-revoked")
		assert.NoError(t, err)
	})
}

func TestAuthService_SignoutThenRefreshFails(t *testing.T) {
	jwtService := newTestJWTService()
	userID := uuid.New()

	refreshToken, err := jwtService.GenerateRefreshToken(userID)
	assert.NoError(t, err)
	tokenHash := auth.HashToken(refreshToken)

	mockSessionRepo := new(MockSessionRepository)
	mockSessionRepo.On("DeleteByTokenHash", mock.Anything, tokenHash).Return(int64(1), nil)
	// session is gone after signout
	mockSessionRepo.On("FindValid", mock.Anything, tokenHash, userID).Return(nil, gorm.ErrRecordNotFound)

	svc := NewAuthService(new(MockUserRepository), mockSessionRepo, new(MockRoleRepository), jwtService)

	assert.NoError(t, svc.Signout(context.Background(), refreshToken))

	_, err = svc.RefreshAccessToken(context.Background(), refreshToken)
	assert.Equal(t, errs.ErrInvalidToken, err)

	mockSessionRepo.AssertExpectations(t)
}

func TestAuthService_SignoutAll(t *testing.T) {
	userID := uuid.New()
	mockSessionRepo := new(MockSessionRepository)
	mockSessionRepo.On("DeleteAllForUser", mock.Anything, userID).Return(int64(3), nil)

	svc := NewAuthService(new(MockUserRepository), mockSessionRepo, new(MockRoleRepository), newTestJWTService())
	count, err := svc.SignoutAll(context.Background(), userID)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
	mockSessionRepo.AssertExpectations(t)
}

func TestAuthService_SweepExpiredSessions(t *testing.T) {
	mockSessionRepo := new(MockSessionRepository)
	mockSessionRepo.On("DeleteExpired", mock.Anything).Return(int64(7), nil)

	svc := NewAuthService(new(MockUserRepository), mockSessionRepo, new(MockRoleRepository), newTestJWTService())
	count, err := svc.SweepExpiredSessions(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)
	mockSessionRepo.AssertExpectations(t)
}
