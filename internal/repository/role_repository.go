package repository

import (
	"fmt"

	"github.com/yukikurage/construction-pm-api/internal/models"
	"gorm.io/gorm"
)

// GormRoleRepository is a GORM implementation of RoleRepository
type GormRoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new RoleRepository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &GormRoleRepository{db: db}
}

// EnsureRoles creates any missing role rows. Existing rows are left untouched.
func (r *GormRoleRepository) EnsureRoles() error {
	for _, name := range models.AllRoleNames {
		role := models.Role{Name: name}
		err := r.db.Where(models.Role{Name: name}).
			Attrs(models.Role{Description: name.Description()}).
			FirstOrCreate(&role).Error
		if err != nil {
			return fmt.Errorf("failed to ensure role %s: %w", name, err)
		}
	}
	return nil
}

// FindByNames returns the stored roles for names
func (r *GormRoleRepository) FindByNames(names []models.RoleName) ([]models.Role, error) {
	var roles []models.Role
	if len(names) == 0 {
		return roles, nil
	}
	if err := r.db.Where("name IN ?", names).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// List returns every stored role
func (r *GormRoleRepository) List() ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.Order("id ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}
