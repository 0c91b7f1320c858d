package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/entity"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/service"
)

// LoginRequest carries the user-supplied login details. UserID is optional;
// a missing id is derived from the display name.
type LoginRequest struct {
	Name          string `json:"name"`
	UserID        string `json:"userId,omitempty"`
	Image         string `json:"image,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
	AuthType      string `json:"authType,omitempty"`
}

// SessionState is the outcome of a successful bootstrap.
type SessionState struct {
	User    entity.UserRecord    `json:"user"`
	Token   string               `json:"token"`
	Channel entity.ChannelHandle `json:"channel"`
}

// DiagnosticsReport is the structured result of the backend permission probes.
type DiagnosticsReport struct {
	UserID            string `json:"userId"`
	CanCreateChannels bool   `json:"canCreateChannels"`
	CreateError       string `json:"createError,omitempty"`
	CanQueryUsers     bool   `json:"canQueryUsers"`
	QueryError        string `json:"queryError,omitempty"`
	Role              string `json:"role,omitempty"`
}

// Session bootstraps and tracks the chat session once the network gate is
// satisfied: token issuance, user upsert, channel acquisition. Backend
// failures are classified and surfaced through the notification bus before
// being returned.
type Session struct {
	issuer   *TokenIssuer
	backend  service.ChatBackend
	channels *ChannelAcquirer
	bus      *NotificationBus
	logger   *zap.Logger

	mu    sync.Mutex
	state *SessionState
}

// NewSession wires the session bootstrap over its collaborators.
func NewSession(
	issuer *TokenIssuer,
	backend service.ChatBackend,
	channels *ChannelAcquirer,
	bus *NotificationBus,
	logger *zap.Logger,
) *Session {
	return &Session{
		issuer:   issuer,
		backend:  backend,
		channels: channels,
		bus:      bus,
		logger:   logger.Named("Session"),
	}
}

// Login authenticates a user against the chat backend and obtains a working
// channel. Token failures are fatal to the bootstrap and propagate with a
// descriptive message; backend failures are classified first.
func (s *Session) Login(ctx context.Context, req LoginRequest) (*SessionState, error) {
	userID := req.UserID
	if userID == "" {
		userID = deriveUserID(req.Name)
	}

	token, err := s.issuer.Issue(userID)
	if err != nil {
		s.logger.Error("Token issuance failed", zap.String("userId", userID), zap.Error(err))
		return nil, fmt.Errorf("cannot authenticate %q: %w", userID, err)
	}

	user := entity.UserRecord{
		ID:            userID,
		Name:          req.Name,
		Image:         req.Image,
		Role:          "user",
		WalletAddress: req.WalletAddress,
		AuthType:      req.AuthType,
	}
	if user.AuthType == "" && entity.IsEthereumAddress(userID) {
		user.AuthType = "wallet"
	}

	if err := s.backend.UpsertUser(ctx, user); err != nil {
		s.reportBackendFailure("Login failed", err)
		return nil, fmt.Errorf("upsert user %q: %w", userID, err)
	}

	channel, err := s.channels.Acquire(ctx, userID, req.Name)
	if err != nil {
		s.reportBackendFailure("Channel unavailable", err)
		return nil, err
	}

	state := &SessionState{User: user, Token: token, Channel: channel}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	s.logger.Info("Session established",
		zap.String("userId", userID),
		zap.String("channel", channel.ID))
	return state, nil
}

// Current returns the active session state, or nil before a successful login.
func (s *Session) Current() *SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Diagnostics probes the backend permissions for a user: channel creation
// (create then delete a throwaway channel) and user querying with the
// resolved role.
func (s *Session) Diagnostics(ctx context.Context, userID string) DiagnosticsReport {
	report := DiagnosticsReport{UserID: userID}

	probeID := fmt.Sprintf("test-%d", time.Now().UnixMilli())
	_, err := s.backend.CreateChannel(ctx, "messaging", probeID, entity.ChannelParams{
		Name:    "Test Channel",
		Members: []string{userID},
	})
	if err != nil {
		report.CreateError = err.Error()
	} else {
		report.CanCreateChannels = true
		if delErr := s.backend.DeleteChannel(ctx, "messaging", probeID); delErr != nil {
			s.logger.Warn("Failed to delete diagnostics channel",
				zap.String("channel", probeID), zap.Error(delErr))
		}
	}

	users, err := s.backend.QueryUsers(ctx, map[string]string{"id": userID})
	if err != nil {
		report.QueryError = err.Error()
	} else {
		report.CanQueryUsers = true
		if len(users) > 0 {
			report.Role = users[0].Role
		}
	}

	return report
}

// reportBackendFailure classifies a backend error and emits a generic error
// notice so the failure is visible outside the log stream.
func (s *Session) reportBackendFailure(title string, err error) {
	var backendErr *entity.BackendError
	if errors.As(err, &backendErr) {
		classified := Classify(backendErr)
		s.logger.Warn("Backend call failed",
			zap.Int("code", backendErr.Code),
			zap.String("category", string(classified.Category)),
			zap.String("suggestion", classified.Suggestion))
		s.bus.Notify("ERROR", title,
			fmt.Sprintf("%s. %s", classified.Message, classified.Suggestion),
			entity.SeverityError, 0)
		return
	}
	s.logger.Warn("Backend call failed", zap.Error(err))
	s.bus.Notify("ERROR", title, err.Error(), entity.SeverityError, 0)
}

// deriveUserID turns a display name into a stable identifier, falling back to
// a generated one for names with no usable characters.
func deriveUserID(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	id := strings.Trim(b.String(), "-")
	if id == "" {
		return "user-" + uuid.NewString()[:8]
	}
	return id
}
