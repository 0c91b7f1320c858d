package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/entity"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/service"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/pkg/apperrors"
)

// Shared channel constants. Every demo user is a member of the general
// channel; users who cannot reach it get a private channel instead.
const (
	channelType       = "messaging"
	sharedChannelID   = "general"
	sharedChannelName = "General Chat"
)

var sharedChannelMembers = []string{"aaa", "bbb", "ccc"}

// ChannelAcquirer obtains a usable channel handle for a freshly authenticated
// user, degrading from the shared channel to a private one.
type ChannelAcquirer struct {
	backend service.ChatBackend
	logger  *zap.Logger
}

// NewChannelAcquirer creates a channel acquirer over the chat backend.
func NewChannelAcquirer(backend service.ChatBackend, logger *zap.Logger) *ChannelAcquirer {
	return &ChannelAcquirer{
		backend: backend,
		logger:  logger.Named("ChannelAcquirer"),
	}
}

// Acquire joins the well-known shared channel, falling back to creating a
// private per-user channel on any failure of the primary path. The two
// attempts are strictly sequential and the fallback is made at most once; its
// failure propagates. Ownership of the returned handle passes to the caller.
func (a *ChannelAcquirer) Acquire(ctx context.Context, userID, userName string) (entity.ChannelHandle, error) {
	handle, err := a.backend.FindOrWatchChannel(ctx, channelType, sharedChannelID, entity.ChannelParams{
		Name:    sharedChannelName,
		Members: sharedChannelMembers,
	})
	if err == nil {
		a.logger.Debug("Joined shared channel", zap.String("userId", userID))
		return handle, nil
	}

	// Unconditional degrade-and-continue: the primary error is not classified
	// here. Whether some categories (e.g. rate limits) should skip the
	// fallback is an open product question; see DESIGN.md.
	a.logger.Info("Shared channel unavailable, creating private channel",
		zap.String("userId", userID), zap.Error(err))

	privateID := "chat-" + userID
	handle, fallbackErr := a.backend.CreateChannel(ctx, channelType, privateID, entity.ChannelParams{
		Name:    fmt.Sprintf("%s's Chat", userName),
		Members: []string{userID},
	})
	if fallbackErr != nil {
		a.logger.Error("Private channel creation failed",
			zap.String("userId", userID), zap.Error(fallbackErr))
		return entity.ChannelHandle{}, fmt.Errorf("%w: %v", apperrors.ErrChannelAcquisitionFailed, fallbackErr)
	}

	return handle, nil
}
