package repository

import (
	"errors"
	"fmt"

	"github.com/yukikurage/construction-pm-api/internal/database"
	"github.com/yukikurage/construction-pm-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when inserting the user row fails.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrAttachRoles is returned when linking roles to a user fails.
	ErrAttachRoles = errors.New("user repository: attach roles failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a user and links the given roles atomically.
func (r *GormUserRepository) Create(user *models.User, roles []models.Role) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		if len(roles) > 0 {
			if err := tx.Model(user).Association("Roles").Append(roles); err != nil {
				return fmt.Errorf("%w: %v", ErrAttachRoles, err)
			}
		}

		return nil
	})
}

// FindByID finds a user by ID with optional preloading
func (r *GormUserRepository) FindByID(id uint64, preload ...string) (*models.User, error) {
	var user models.User
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername finds a user by username
func (r *GormUserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Roles").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Roles").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns every user ordered by ID
func (r *GormUserRepository) List() ([]models.User, error) {
	var users []models.User
	if err := r.db.Preload("Roles").Order("users.id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Search returns users where any of columns contains query, ignoring case
func (r *GormUserRepository) Search(query string, columns ...string) ([]models.User, error) {
	var users []models.User
	err := r.db.Model(&models.User{}).
		Scopes(database.ContainsFold(query, columns...)).
		Preload("Roles").
		Order("users.full_name ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ListByRole returns users holding role
func (r *GormUserRepository) ListByRole(role models.RoleName) ([]models.User, error) {
	holders := r.db.Table("user_roles").
		Select("user_roles.user_id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("roles.name = ?", role)

	var users []models.User
	err := r.db.Preload("Roles").
		Where("users.id IN (?)", holders).
		Order("users.full_name ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Update saves scalar user fields
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Omit(clause.Associations).Save(user).Error
}

// UpdateWithRoles saves scalar user fields and replaces the role links in
// one transaction.
func (r *GormUserRepository) UpdateWithRoles(user *models.User, roles []models.Role) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(user).Error; err != nil {
			return err
		}
		return replaceRoles(tx, user, roles)
	})
}

// ReplaceRoles removes every existing role link and attaches roles.
func (r *GormUserRepository) ReplaceRoles(user *models.User, roles []models.Role) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return replaceRoles(tx, user, roles)
	})
}

func replaceRoles(tx *gorm.DB, user *models.User, roles []models.Role) error {
	if err := tx.Exec("DELETE FROM user_roles WHERE user_id = ?", user.ID).Error; err != nil {
		return err
	}
	if err := tx.Model(user).Association("Roles").Append(roles); err != nil {
		return fmt.Errorf("%w: %v", ErrAttachRoles, err)
	}
	user.Roles = roles
	return nil
}

// Delete removes the user and clears references held by projects and tasks.
func (r *GormUserRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_roles WHERE user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Project{}).Where("manager_id = ?", id).Update("manager_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("assignee_id = ?", id).Update("assignee_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.PasswordResetCode{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
