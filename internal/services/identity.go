package services

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/oilmart/internal/config"
	"github.com/example/oilmart/internal/models"
	"github.com/example/oilmart/internal/utils"
)

// RegisterUserInput is the self-service registration payload. Users carry
// no credentials; email is the only identity key.
type RegisterUserInput struct {
	Email string
	Name  string
	Phone string
}

// UserPatch lists the mutable profile fields; email is immutable in-band.
type UserPatch struct {
	Name  *string
	Phone *string
}

// IdentityService owns users, favorites and back-office accounts.
type IdentityService struct {
	db *gorm.DB
}

// NewIdentityService constructs IdentityService.
func NewIdentityService(db *gorm.DB) *IdentityService {
	return &IdentityService{db: db}
}

// RegisterUser creates a customer record keyed by email.
func (s *IdentityService) RegisterUser(in RegisterUserInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.Email == "" {
		return nil, newValidationError("email is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, newValidationError("invalid email address")
	}
	if in.Phone != "" && !phonePattern.MatchString(in.Phone) {
		return nil, newValidationError("phone must be 10-15 digits with an optional leading +")
	}

	user := &models.User{Email: in.Email, Name: in.Name, Phone: in.Phone}
	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// GetUser looks a customer up by id.
func (s *IdentityService) GetUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUserProfile applies a profile patch.
func (s *IdentityService) UpdateUserProfile(id uuid.UUID, patch UserPatch) (*models.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Phone != nil {
		phone := strings.TrimSpace(*patch.Phone)
		if phone != "" && !phonePattern.MatchString(phone) {
			return nil, newValidationError("phone must be 10-15 digits with an optional leading +")
		}
		user.Phone = phone
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// AddFavorite stores the (user, product) pair. Adding the same pair again
// is a no-op that returns the existing row; created reports whether a new
// row was written.
func (s *IdentityService) AddFavorite(userID, productID uuid.UUID) (favorite *models.Favorite, created bool, err error) {
	if _, err := s.GetUser(userID); err != nil {
		return nil, false, err
	}

	var known int64
	if err := s.db.Model(&models.Product{}).Where("id = ?", productID).Count(&known).Error; err != nil {
		return nil, false, err
	}
	if known == 0 {
		return nil, false, ErrProductNotFound
	}

	row := &models.Favorite{UserID: userID, ProductID: productID}
	err = s.db.Create(row).Error
	if err == nil {
		return row, true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, err
	}

	var existing models.Favorite
	if err := s.db.First(&existing, "user_id = ? AND product_id = ?", userID, productID).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

// RemoveFavorite deletes the pair; removing an absent pair succeeds silently.
func (s *IdentityService) RemoveFavorite(userID, productID uuid.UUID) error {
	return s.db.Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.Favorite{}).Error
}

// ListFavorites returns a user's favorites with products preloaded.
func (s *IdentityService) ListFavorites(userID uuid.UUID, page, limit int) ([]models.Favorite, int64, error) {
	if _, err := s.GetUser(userID); err != nil {
		return nil, 0, err
	}

	query := s.db.Model(&models.Favorite{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var favorites []models.Favorite
	err := query.Preload("Product").
		Order("created_at desc").
		Limit(limit).Offset((page - 1) * limit).
		Find(&favorites).Error
	if err != nil {
		return nil, 0, err
	}
	return favorites, total, nil
}

// AuthenticateAdmin verifies back-office credentials. Unknown usernames,
// wrong passwords and deactivated accounts all fail identically.
func (s *IdentityService) AuthenticateAdmin(username, password string) (*models.Admin, error) {
	var admin models.Admin
	if err := s.db.First(&admin, "username = ?", strings.TrimSpace(username)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPassword(admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !admin.IsActive {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.Model(&admin).Update("last_login_at", &now).Error; err != nil {
		zap.S().Warnw("failed to record admin login time",
			"username", admin.Username,
			"error", err.Error())
	}
	admin.LastLoginAt = &now

	return &admin, nil
}

// GetAdmin loads one back-office account by id.
func (s *IdentityService) GetAdmin(id uuid.UUID) (*models.Admin, error) {
	var admin models.Admin
	if err := s.db.First(&admin, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &admin, nil
}

// EnsureAdminAccount seeds the bootstrap back-office account when no admin
// with the configured username exists yet.
func (s *IdentityService) EnsureAdminAccount(cfg *config.Config) error {
	var admin models.Admin
	err := s.db.First(&admin, "username = ?", cfg.AdminUsername).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin = models.Admin{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         "admin",
		IsActive:     true,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	zap.S().Infow("bootstrap admin account created", "username", admin.Username)
	return nil
}
