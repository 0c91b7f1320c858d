package chatbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/config"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/entity"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/service"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/pkg/apperrors"
)

// Compile-time check
var _ service.ChatBackend = (*Client)(nil)

const userQueryKeyPrefix = "user_query_"

// Client is the REST adapter for the chat backend. User-query results are
// cached with a short TTL since the session layer re-reads them on every
// diagnostics run.
type Client struct {
	client *fasthttp.Client
	cfg    config.BackendConfig
	users  *cache.Cache
	logger *zap.Logger
}

// NewClient creates a chat-backend client from config.
func NewClient(cfg config.BackendConfig, logger *zap.Logger) *Client {
	c := cache.New(cfg.GetUserCacheTTL(), cfg.GetUserCacheCleanup())
	logger.Info("Initialized backend user-query cache",
		zap.Duration("ttl", cfg.GetUserCacheTTL()),
		zap.Duration("cleanupInterval", cfg.GetUserCacheCleanup()))

	return &Client{
		client: &fasthttp.Client{
			ReadTimeout: cfg.RequestTimeout,
		},
		cfg:    cfg,
		users:  c,
		logger: logger.Named("ChatBackend"),
	}
}

// UpsertUser creates or updates a user record.
func (c *Client) UpsertUser(ctx context.Context, user entity.UserRecord) error {
	body := map[string]interface{}{
		"users": map[string]entity.UserRecord{user.ID: user},
	}
	_, err := c.do(ctx, fasthttp.MethodPost, "/users", body)
	if err != nil {
		return err
	}
	// The record may have changed; cached query results for it are stale.
	c.users.Delete(userQueryKey(map[string]string{"id": user.ID}))
	return nil
}

// FindOrWatchChannel joins an existing channel, creating the server-side
// watch if needed.
func (c *Client) FindOrWatchChannel(ctx context.Context, chType, chID string, params entity.ChannelParams) (entity.ChannelHandle, error) {
	return c.channelRequest(ctx, fmt.Sprintf("/channels/%s/%s/query", chType, chID), chType, chID, params, true)
}

// CreateChannel creates a new channel.
func (c *Client) CreateChannel(ctx context.Context, chType, chID string, params entity.ChannelParams) (entity.ChannelHandle, error) {
	return c.channelRequest(ctx, fmt.Sprintf("/channels/%s/%s", chType, chID), chType, chID, params, false)
}

// DeleteChannel removes a channel.
func (c *Client) DeleteChannel(ctx context.Context, chType, chID string) error {
	_, err := c.do(ctx, fasthttp.MethodDelete, fmt.Sprintf("/channels/%s/%s", chType, chID), nil)
	return err
}

// QueryUsers returns user records matching the filter, consulting the cache
// first.
func (c *Client) QueryUsers(ctx context.Context, filter map[string]string) ([]entity.UserRecord, error) {
	key := userQueryKey(filter)
	if x, found := c.users.Get(key); found {
		if users, ok := x.([]entity.UserRecord); ok {
			c.logger.Debug("User query cache hit", zap.String("key", key))
			return users, nil
		}
		c.logger.Warn("User query cache type mismatch", zap.String("key", key), zap.Any("type", fmt.Sprintf("%T", x)))
	}

	body := map[string]interface{}{"filter_conditions": filter}
	respBody, err := c.do(ctx, fasthttp.MethodPost, "/users/query", body)
	if err != nil {
		return nil, err
	}

	var result struct {
		Users []entity.UserRecord `json:"users"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: invalid user query response: %v", apperrors.ErrBackendFailure, err)
	}

	c.users.Set(key, result.Users, c.cfg.GetUserCacheTTL())
	return result.Users, nil
}

func (c *Client) channelRequest(
	ctx context.Context,
	path, chType, chID string,
	params entity.ChannelParams,
	watch bool,
) (entity.ChannelHandle, error) {
	body := map[string]interface{}{
		"data": map[string]interface{}{
			"name":    params.Name,
			"members": params.Members,
		},
	}
	if watch {
		body["watch"] = true
	}

	respBody, err := c.do(ctx, fasthttp.MethodPost, path, body)
	if err != nil {
		return entity.ChannelHandle{}, err
	}

	var result struct {
		Channel struct {
			Name string `json:"name"`
		} `json:"channel"`
		Members []struct {
			UserID string `json:"user_id"`
		} `json:"members"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return entity.ChannelHandle{}, fmt.Errorf("%w: invalid channel response: %v", apperrors.ErrBackendFailure, err)
	}

	handle := entity.ChannelHandle{
		Type: chType,
		ID:   chID,
		Name: result.Channel.Name,
	}
	if handle.Name == "" {
		handle.Name = params.Name
	}
	for _, m := range result.Members {
		handle.Members = append(handle.Members, m.UserID)
	}
	if handle.Members == nil {
		handle.Members = params.Members
	}
	return handle, nil
}

// do performs one backend round trip. Structured backend failures come back
// as *entity.BackendError so callers can classify them.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.cfg.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to marshal request: %v", apperrors.ErrBackendFailure, err)
		}
		req.SetBody(payload)
	}

	timeout := c.client.ReadTimeout
	if deadline, ok := ctx.Deadline(); ok {
		requestTimeout := time.Until(deadline)
		if requestTimeout > 0 && (timeout <= 0 || requestTimeout < timeout) {
			timeout = requestTimeout
		}
	}

	var requestErr error
	if timeout <= 0 {
		requestErr = c.client.Do(req, resp)
	} else {
		requestErr = c.client.DoTimeout(req, resp, timeout)
	}
	if requestErr != nil {
		c.logger.Debug("Backend request failed",
			zap.String("method", method), zap.String("path", path), zap.Error(requestErr))
		return nil, fmt.Errorf("%w: %s %s: %v", apperrors.ErrBackendFailure, method, path, requestErr)
	}

	if resp.StatusCode() >= 400 {
		backendErr := parseBackendError(resp.StatusCode(), resp.Body())
		c.logger.Debug("Backend returned error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("statusCode", resp.StatusCode()),
			zap.Int("code", backendErr.Code))
		return nil, backendErr
	}

	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

// parseBackendError extracts the backend's structured error payload, falling
// back to the HTTP status when the body is not parseable.
func parseBackendError(statusCode int, body []byte) *entity.BackendError {
	var parsed entity.BackendError
	if err := json.Unmarshal(body, &parsed); err == nil && (parsed.Code != 0 || parsed.Text() != "") {
		return &parsed
	}
	return &entity.BackendError{
		Code:    statusCode,
		Message: fmt.Sprintf("backend returned status %d", statusCode),
	}
}

// userQueryKey builds a deterministic cache key from the filter map.
func userQueryKey(filter map[string]string) string {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(userQueryKeyPrefix)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(filter[k])
		b.WriteByte(';')
	}
	return b.String()
}
