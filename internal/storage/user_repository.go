package storage

import (
	"context"

	"gorm.io/gorm"

	"streamify/internal/models"
)

// publicProfileColumns are the user columns exposed to other members.
var publicProfileColumns = []string{"id", "name", "avatar_url", "location", "native_language", "learning_language"}

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByIDSafe loads a user without its password hash. Used by the
	// session middleware when attaching the identity to the request.
	GetByIDSafe(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateProfile applies the allow-listed onboarding fields and flips
	// IsOnboarded. Nothing outside the ProfileUpdate struct is written.
	UpdateProfile(ctx context.Context, id uint, update models.ProfileUpdate) (*models.User, error)
	GetPublicProfileByID(ctx context.Context, id uint) (*models.PublicProfile, error)
	GetPublicProfilesByIDs(ctx context.Context, ids []uint) ([]*models.PublicProfile, error)
	// ListOnboardedExcluding returns users who completed onboarding,
	// excluding every ID in the given set.
	ListOnboardedExcluding(ctx context.Context, excludeIDs []uint) ([]models.User, error)
}

// gormUserRepository implements UserRepository using GORM.
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based UserRepository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *gormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err // includes gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *gormUserRepository) GetByIDSafe(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Omit("password_hash").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormUserRepository) UpdateProfile(ctx context.Context, id uint, update models.ProfileUpdate) (*models.User, error) {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":              update.Name,
		"bio":               update.Bio,
		"location":          update.Location,
		"native_language":   update.NativeLanguage,
		"learning_language": update.LearningLanguage,
		"is_onboarded":      true,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByIDSafe(ctx, id)
}

func (r *gormUserRepository) GetPublicProfileByID(ctx context.Context, id uint) (*models.PublicProfile, error) {
	var profile models.PublicProfile
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select(publicProfileColumns).
		Where("id = ?", id).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *gormUserRepository) GetPublicProfilesByIDs(ctx context.Context, ids []uint) ([]*models.PublicProfile, error) {
	profiles := []*models.PublicProfile{}
	if len(ids) == 0 {
		return profiles, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select(publicProfileColumns).
		Where("id IN ?", ids).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *gormUserRepository) ListOnboardedExcluding(ctx context.Context, excludeIDs []uint) ([]models.User, error) {
	users := []models.User{}
	q := r.db.WithContext(ctx).
		Omit("password_hash").
		Where("is_onboarded = ?", true)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	err := q.Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
