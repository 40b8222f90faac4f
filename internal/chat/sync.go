package chat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"streamify/internal/logger"
	"streamify/internal/models"
)

// IdentitySyncer mirrors user identities to the chat provider.
// Implementations must never block the caller's success path.
type IdentitySyncer interface {
	SyncUser(user *models.User)
}

// AsyncSyncer runs each upsert in its own goroutine. Failures are logged and
// swallowed: signup and onboarding must succeed independent of the provider's
// availability.
type AsyncSyncer struct {
	provider Provider
	timeout  time.Duration
}

// NewAsyncSyncer creates a fire-and-forget identity syncer.
func NewAsyncSyncer(provider Provider) *AsyncSyncer {
	return &AsyncSyncer{provider: provider, timeout: 10 * time.Second}
}

func (s *AsyncSyncer) SyncUser(user *models.User) {
	chatUser := User{
		ID:    user.IDString(),
		Name:  user.Name,
		Image: user.AvatarURL,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.provider.UpsertUser(ctx, chatUser); err != nil {
			logger.Error("chat identity sync failed",
				zap.String("userId", chatUser.ID),
				zap.Error(err),
			)
			return
		}
		logger.Debug("chat identity synced", zap.String("userId", chatUser.ID))
	}()
}
