package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EricNguyen1206/fastify-auth/internal/model"
)

// RoleRepository defines role persistence operations.
type RoleRepository interface {
	FindByName(ctx context.Context, name string) (*model.Role, error)
	AssignToUser(ctx context.Context, userID, roleID uuid.UUID) error
	GetUserRoles(ctx context.Context, userID uuid.UUID) ([]model.UserRole, error)
	EnsureDefaultRoles(ctx context.Context) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository builds a GORM-backed role repository.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) AssignToUser(ctx context.Context, userID, roleID uuid.UUID) error {
	assignment := &model.UserRole{UserID: userID, RoleID: roleID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(assignment).Error
}

func (r *roleRepository) GetUserRoles(ctx context.Context, userID uuid.UUID) ([]model.UserRole, error) {
	var roles []model.UserRole
	if err := r.db.WithContext(ctx).Preload("Role").Where("user_id = ?", userID).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// EnsureDefaultRoles upserts the built-in roles. Safe to run on every boot.
func (r *roleRepository) EnsureDefaultRoles(ctx context.Context) error {
	defaults := []model.Role{
		{Name: model.RoleUser, Description: "Standard user with basic access"},
		{Name: model.RoleAdmin, Description: "Administrator with full access"},
	}
	for i := range defaults {
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&defaults[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}
