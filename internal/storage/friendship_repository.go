package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"streamify/internal/models"
)

// FriendshipRepository defines the interface for friendship data operations.
type FriendshipRepository interface {
	// Upsert records the friendship between two users. Inserting an
	// already-present pair is a no-op, so the call is idempotent and
	// commutative in its arguments.
	Upsert(ctx context.Context, userA, userB uint) error
	AreFriends(ctx context.Context, userA, userB uint) (bool, error)
	GetFriendIDs(ctx context.Context, userID uint) ([]uint, error)
}

type gormFriendshipRepository struct {
	db *gorm.DB
}

// NewGormFriendshipRepository creates a new GORM-based FriendshipRepository.
func NewGormFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &gormFriendshipRepository{db: db}
}

func (r *gormFriendshipRepository) Upsert(ctx context.Context, userA, userB uint) error {
	friendship := models.NewFriendship(userA, userB)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(friendship).Error
}

func (r *gormFriendshipRepository) AreFriends(ctx context.Context, userA, userB uint) (bool, error) {
	if userA > userB {
		userA, userB = userB, userA // canonical order for the query
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("user_lo = ? AND user_hi = ?", userA, userB).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormFriendshipRepository) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	// The user can sit on either side of the canonical pair, so collect
	// the opposite column from both orientations.
	var idsLo []uint
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_lo = ?", userID).
		Pluck("user_hi", &idsLo).Error
	if err != nil {
		return nil, err
	}

	var idsHi []uint
	err = r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_hi = ?", userID).
		Pluck("user_lo", &idsHi).Error
	if err != nil {
		return nil, err
	}

	return append(idsLo, idsHi...), nil
}
