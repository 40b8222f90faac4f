package storage

import (
	"context"

	"gorm.io/gorm"

	"streamify/internal/models"
)

// FriendRequestRepository defines the interface for friend request data operations.
type FriendRequestRepository interface {
	// Create inserts a request. The unique index on the canonical pair
	// columns makes this an atomic conditional insert: a request already
	// existing between the two users (in either direction, any status)
	// surfaces as gorm.ErrDuplicatedKey.
	Create(ctx context.Context, request *models.FriendRequest) error
	GetByID(ctx context.Context, requestID uint) (*models.FriendRequest, error)
	// MarkAccepted flips the status pending -> accepted as a single
	// compare-and-swap update. It reports false when the request was not
	// pending anymore (or does not exist).
	MarkAccepted(ctx context.Context, requestID uint) (bool, error)
	ListPendingForRecipient(ctx context.Context, recipientID uint) ([]models.FriendRequest, error)
	ListPendingFromSender(ctx context.Context, senderID uint) ([]models.FriendRequest, error)
	ListAcceptedForRecipient(ctx context.Context, recipientID uint) ([]models.FriendRequest, error)
}

type gormFriendRequestRepository struct {
	db *gorm.DB
}

// NewGormFriendRequestRepository creates a new GORM-based FriendRequestRepository.
func NewGormFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &gormFriendRequestRepository{db: db}
}

func (r *gormFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) error {
	request.SetPair()
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *gormFriendRequestRepository) GetByID(ctx context.Context, requestID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).First(&request, requestID).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *gormFriendRequestRepository) MarkAccepted(ctx context.Context, requestID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", requestID, models.FriendRequestStatusPending).
		Update("status", models.FriendRequestStatusAccepted)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormFriendRequestRepository) ListPendingForRecipient(ctx context.Context, recipientID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND status = ?", recipientID, models.FriendRequestStatusPending).
		Find(&requests).Error
	return requests, err
}

func (r *gormFriendRequestRepository) ListPendingFromSender(ctx context.Context, senderID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("sender_id = ? AND status = ?", senderID, models.FriendRequestStatusPending).
		Find(&requests).Error
	return requests, err
}

func (r *gormFriendRequestRepository) ListAcceptedForRecipient(ctx context.Context, recipientID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND status = ?", recipientID, models.FriendRequestStatusAccepted).
		Find(&requests).Error
	return requests, err
}
