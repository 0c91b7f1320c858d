package service

import (
	"context"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/entity"
)

// ChatBackend is the capability surface of the external chat service.
// Failures carry a *entity.BackendError whenever the backend produced a
// structured response; transport-level failures come back as plain errors.
type ChatBackend interface {
	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user entity.UserRecord) error

	// FindOrWatchChannel joins an existing channel, creating the watch
	// server-side if needed.
	FindOrWatchChannel(ctx context.Context, chType, chID string, params entity.ChannelParams) (entity.ChannelHandle, error)

	// CreateChannel creates a new channel.
	CreateChannel(ctx context.Context, chType, chID string, params entity.ChannelParams) (entity.ChannelHandle, error)

	// DeleteChannel removes a channel.
	DeleteChannel(ctx context.Context, chType, chID string) error

	// QueryUsers returns user records matching the filter.
	QueryUsers(ctx context.Context, filter map[string]string) ([]entity.UserRecord, error)
}
