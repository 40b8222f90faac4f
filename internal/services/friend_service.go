package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"streamify/internal/config"
	"streamify/internal/kafka"
	"streamify/internal/logger"
	"streamify/internal/models"
	"streamify/internal/storage"
)

var (
	ErrSelfRequest            = errors.New("you can't send a friend request to yourself")
	ErrRecipientNotFound      = errors.New("recipient not found")
	ErrAlreadyFriends         = errors.New("you are already friends with this user")
	ErrDuplicateRequest       = errors.New("a friend request already exists between you and this user")
	ErrRequestNotFound        = errors.New("friend request not found")
	ErrNotRequestRecipient    = errors.New("you are not authorized to accept this request")
	ErrRequestAlreadyAccepted = errors.New("friend request already accepted")
)

// Event types published to the notifications topic.
const (
	eventFriendRequestSent     = "friend_request.sent"
	eventFriendRequestAccepted = "friend_request.accepted"
)

// friendRequestEvent is the notification payload for friend-request activity.
type friendRequestEvent struct {
	Type        string    `json:"type"`
	RequestID   uint      `json:"requestId"`
	SenderID    uint      `json:"senderId"`
	RecipientID uint      `json:"recipientId"`
	Timestamp   time.Time `json:"timestamp"`
}

// FriendRequestsOverview groups the three request views returned by the
// friends-requests endpoint. Accepted holds only requests the user received;
// the symmetric relation lives in the friends list.
type FriendRequestsOverview struct {
	Incoming []*models.FriendRequestWithProfiles `json:"incoming"`
	Accepted []*models.FriendRequestWithProfiles `json:"accepted"`
	Sent     []*models.FriendRequestWithProfiles `json:"sent"`
}

// FriendService defines the friend-request workflow operations.
type FriendService interface {
	SendRequest(ctx context.Context, senderID, recipientID uint) (*models.FriendRequest, error)
	AcceptRequest(ctx context.Context, actingUserID, requestID uint) (*models.FriendRequest, error)
	ListRequests(ctx context.Context, userID uint) (*FriendRequestsOverview, error)
	ListOutgoing(ctx context.Context, userID uint) ([]*models.FriendRequestWithProfiles, error)
	ListFriends(ctx context.Context, userID uint) ([]*models.PublicProfile, error)
	RecommendUsers(ctx context.Context, userID uint) ([]models.User, error)
}

type friendService struct {
	userRepo       storage.UserRepository
	requestRepo    storage.FriendRequestRepository
	friendshipRepo storage.FriendshipRepository
	producer       kafka.MessageProducer // nil disables event publishing
	kafkaCfg       config.KafkaConfig
}

// NewFriendService creates a new FriendService instance.
func NewFriendService(
	userRepo storage.UserRepository,
	requestRepo storage.FriendRequestRepository,
	friendshipRepo storage.FriendshipRepository,
	producer kafka.MessageProducer,
	kafkaCfg config.KafkaConfig,
) FriendService {
	return &friendService{
		userRepo:       userRepo,
		requestRepo:    requestRepo,
		friendshipRepo: friendshipRepo,
		producer:       producer,
		kafkaCfg:       kafkaCfg,
	}
}

// SendRequest validates and creates a pending friend request.
// The duplicate guard is the unique index on the unordered pair, so two
// concurrent sends for the same pair cannot both create a row: the loser of
// the race gets ErrDuplicateRequest, same as a sequential duplicate.
func (s *friendService) SendRequest(ctx context.Context, senderID, recipientID uint) (*models.FriendRequest, error) {
	if senderID == recipientID {
		return nil, ErrSelfRequest
	}

	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("checking recipient: %w", err)
	}

	areFriends, err := s.friendshipRepo.AreFriends(ctx, senderID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("checking friendship: %w", err)
	}
	if areFriends {
		return nil, ErrAlreadyFriends
	}

	request := &models.FriendRequest{
		SenderID:    senderID,
		RecipientID: recipientID,
		Status:      models.FriendRequestStatusPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateRequest
		}
		return nil, fmt.Errorf("creating friend request: %w", err)
	}

	s.publishEvent(eventFriendRequestSent, request)

	return request, nil
}

// AcceptRequest flips a pending request to accepted and records the mutual
// friendship. Only the recipient may accept. The status flip is a single
// conditional update, and the friendship upsert is idempotent, so a retry
// after a partial failure cannot corrupt either side.
func (s *friendService) AcceptRequest(ctx context.Context, actingUserID, requestID uint) (*models.FriendRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("retrieving friend request: %w", err)
	}

	if request.RecipientID != actingUserID {
		return nil, ErrNotRequestRecipient
	}
	if request.Status == models.FriendRequestStatusAccepted {
		return nil, ErrRequestAlreadyAccepted
	}

	flipped, err := s.requestRepo.MarkAccepted(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("updating friend request status: %w", err)
	}
	if !flipped {
		// A concurrent accept won the compare-and-swap.
		return nil, ErrRequestAlreadyAccepted
	}

	if err := s.friendshipRepo.Upsert(ctx, request.SenderID, request.RecipientID); err != nil {
		return nil, fmt.Errorf("recording friendship: %w", err)
	}

	request.Status = models.FriendRequestStatusAccepted
	s.publishEvent(eventFriendRequestAccepted, request)

	return request, nil
}

// ListRequests returns incoming pending, accepted-as-recipient, and sent
// pending requests, each enriched with the counterpart's public profile.
func (s *friendService) ListRequests(ctx context.Context, userID uint) (*FriendRequestsOverview, error) {
	incoming, err := s.requestRepo.ListPendingForRecipient(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching incoming requests: %w", err)
	}
	accepted, err := s.requestRepo.ListAcceptedForRecipient(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching accepted requests: %w", err)
	}
	sent, err := s.requestRepo.ListPendingFromSender(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching sent requests: %w", err)
	}

	return &FriendRequestsOverview{
		Incoming: s.withSenderProfiles(ctx, incoming),
		Accepted: s.withSenderProfiles(ctx, accepted),
		Sent:     s.withRecipientProfiles(ctx, sent),
	}, nil
}

// ListOutgoing returns pending requests the user has sent, with recipient profiles.
func (s *friendService) ListOutgoing(ctx context.Context, userID uint) ([]*models.FriendRequestWithProfiles, error) {
	sent, err := s.requestRepo.ListPendingFromSender(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching outgoing requests: %w", err)
	}
	return s.withRecipientProfiles(ctx, sent), nil
}

// ListFriends returns the public profiles of all the user's friends.
func (s *friendService) ListFriends(ctx context.Context, userID uint) ([]*models.PublicProfile, error) {
	friendIDs, err := s.friendshipRepo.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching friend ids: %w", err)
	}
	if len(friendIDs) == 0 {
		return []*models.PublicProfile{}, nil
	}

	profiles, err := s.userRepo.GetPublicProfilesByIDs(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching friend profiles: %w", err)
	}
	return profiles, nil
}

// RecommendUsers returns onboarded users who are neither the caller nor
// already their friends.
func (s *friendService) RecommendUsers(ctx context.Context, userID uint) ([]models.User, error) {
	friendIDs, err := s.friendshipRepo.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching friend ids: %w", err)
	}

	exclude := append(friendIDs, userID)
	users, err := s.userRepo.ListOnboardedExcluding(ctx, exclude)
	if err != nil {
		return nil, fmt.Errorf("fetching recommended users: %w", err)
	}
	return users, nil
}

func (s *friendService) withSenderProfiles(ctx context.Context, requests []models.FriendRequest) []*models.FriendRequestWithProfiles {
	result := make([]*models.FriendRequestWithProfiles, 0, len(requests))
	for _, req := range requests {
		sender, err := s.userRepo.GetPublicProfileByID(ctx, req.SenderID)
		if err != nil {
			logger.Warn("skipping request with unresolvable sender",
				zap.Uint("requestId", req.ID), zap.Uint("senderId", req.SenderID), zap.Error(err))
			continue
		}
		result = append(result, &models.FriendRequestWithProfiles{FriendRequest: req, Sender: sender})
	}
	return result
}

func (s *friendService) withRecipientProfiles(ctx context.Context, requests []models.FriendRequest) []*models.FriendRequestWithProfiles {
	result := make([]*models.FriendRequestWithProfiles, 0, len(requests))
	for _, req := range requests {
		recipient, err := s.userRepo.GetPublicProfileByID(ctx, req.RecipientID)
		if err != nil {
			logger.Warn("skipping request with unresolvable recipient",
				zap.Uint("requestId", req.ID), zap.Uint("recipientId", req.RecipientID), zap.Error(err))
			continue
		}
		result = append(result, &models.FriendRequestWithProfiles{FriendRequest: req, Recipient: recipient})
	}
	return result
}

// publishEvent emits a notification event without ever touching the caller's
// success path: delivery runs in its own goroutine and failures are only logged.
func (s *friendService) publishEvent(eventType string, request *models.FriendRequest) {
	if s.producer == nil {
		return
	}

	event := friendRequestEvent{
		Type:        eventType,
		RequestID:   request.ID,
		SenderID:    request.SenderID,
		RecipientID: request.RecipientID,
		Timestamp:   time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("marshalling friend request event", zap.Error(err))
		return
	}
	key := []byte(fmt.Sprintf("%d-%d", request.SenderID, request.RecipientID))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.producer.SendMessage(ctx, s.kafkaCfg.NotificationsTopic, key, payload); err != nil {
			logger.Error("publishing friend request event",
				zap.String("type", eventType),
				zap.Uint("requestId", request.ID),
				zap.Error(err),
			)
		}
	}()
}
