package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EricNguyen1206/fastify-auth/internal/cache"
	errs "github.com/EricNguyen1206/fastify-auth/internal/errors"
	"github.com/EricNguyen1206/fastify-auth/internal/model"
	"github.com/EricNguyen1206/fastify-auth/internal/repository"
)

const profileCacheTTL = 5 * time.Minute

// ProfileUpdates carries the fields a user may change on their own profile.
// Everything else (email, password, role) has no path through this type.
type ProfileUpdates struct {
	FullName *string
}

// UserService exposes profile operations.
type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, updates ProfileUpdates) (*model.User, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("profile:%s", id)
}

// GetProfile returns the user, read-through cached.
func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(userID)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(userID), payload, profileCacheTTL)
	}
	return user, nil
}

// UpdateProfile applies the allow-listed fields. Nil or whitespace-only input
// leaves an empty update set, in which case the current profile is returned
// without touching the store's write path.
func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, updates ProfileUpdates) (*model.User, error) {
	fields := map[string]interface{}{}
	if updates.FullName != nil {
		if name := strings.TrimSpace(*updates.FullName); name != "" {
			fields["full_name"] = name
		}
	}

	if len(fields) == 0 {
		return s.GetProfile(ctx, userID)
	}

	user, err := s.repo.Update(ctx, userID, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrUserNotFound
		}
		return nil, err
	}

	_ = s.cache.Delete(ctx, s.cacheKey(userID))
	return user, nil
}
