package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/config"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/entity"
)

// subscriber channel depth; events are dropped for a subscriber that stops
// draining rather than blocking the bus.
const eventBufferSize = 64

// notice is a live notification plus its pending lifecycle timers.
type notice struct {
	data        entity.Notification
	expiryTimer *time.Timer
	closing     bool
}

// NotificationBus owns short-lived, independently expiring notices. It never
// renders anything itself: consumers read the Active snapshot or follow the
// Subscribe stream and do their own presentation.
type NotificationBus struct {
	mu      sync.Mutex
	notices map[string]*notice
	subs    map[int]chan entity.NotificationEvent
	nextSub int

	explorer entity.Chain
	cfg      config.NotifierConfig
	logger   *zap.Logger
}

// NewNotificationBus creates a bus using the configured TTLs and removal
// grace. The chain descriptor supplies the block-explorer base for
// transaction links.
func NewNotificationBus(cfg config.NotifierConfig, chain entity.Chain, logger *zap.Logger) *NotificationBus {
	return &NotificationBus{
		notices:  make(map[string]*notice),
		subs:     make(map[int]chan entity.NotificationEvent),
		explorer: chain,
		cfg:      cfg,
		logger:   logger.Named("NotificationBus"),
	}
}

// NotifyIntegrity publishes a hash-verification notice. The role selects the
// sender/recipient templates; the text and hash are truncated for display and
// an explorer link is attached when a transaction hash is known. TTL from
// config (10s by default).
func (b *NotificationBus) NotifyIntegrity(
	role entity.IntegrityRole,
	originalText, messageHash, transactionHash string,
	verification *entity.VerificationData,
) entity.Notification {
	var icon, title, message string
	switch role {
	case entity.RoleRecipient:
		icon = "🔍✅"
		title = "Verified message received"
		message = "Message confirmed by blockchain! The sender proved message authenticity through the smart contract."
	default:
		icon = "OK"
		title = "Message verified"
		message = "Message was not tampered with! Your message hash has been successfully recorded in the blockchain."
	}

	details := &entity.IntegrityDetails{
		Role:         role,
		TextPreview:  TruncateText(originalText, 50),
		HashPreview:  TruncateHash(messageHash),
		Verification: verification,
	}
	if transactionHash != "" {
		details.TransactionHash = TruncateHash(transactionHash)
		details.TransactionURL = b.explorer.TxURL(transactionHash)
	}

	n := entity.Notification{
		ID:        uuid.NewString(),
		Kind:      entity.NotificationIntegrity,
		Icon:      icon,
		Title:     title,
		Message:   message,
		Severity:  entity.SeveritySuccess,
		Integrity: details,
		CreatedAt: time.Now(),
		TTL:       b.cfg.IntegrityTTL,
	}
	b.publish(n)
	return n
}

// Notify publishes a generic notice. Zero ttl uses the configured default
// (5s).
func (b *NotificationBus) Notify(icon, title, message string, severity entity.Severity, ttl time.Duration) entity.Notification {
	if ttl <= 0 {
		ttl = b.cfg.DefaultTTL
	}
	n := entity.Notification{
		ID:        uuid.NewString(),
		Kind:      entity.NotificationGeneric,
		Icon:      icon,
		Title:     title,
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
	b.publish(n)
	return n
}

// NotifyVerificationError publishes an error notice about a failed hash
// verification, truncating the offending text to 30 characters. TTL from
// config (8s by default).
func (b *NotificationBus) NotifyVerificationError(originalText string, err error) entity.Notification {
	message := "Failed to verify message: \"" + TruncateText(originalText, 30) + "\". " + err.Error()
	return b.Notify("ERROR", "Verification error", message, entity.SeverityError, b.cfg.ErrorTTL)
}

// Dismiss starts the closing transition for a notice ahead of its TTL. The
// pending expiry timer is cancelled so it cannot fire a second removal.
// Returns false for an unknown or already-closing id.
func (b *NotificationBus) Dismiss(id string) bool {
	b.mu.Lock()
	n, ok := b.notices[id]
	if !ok || n.closing {
		b.mu.Unlock()
		return false
	}
	n.expiryTimer.Stop()
	b.beginClosingLocked(n)
	b.mu.Unlock()
	return true
}

// Active returns a snapshot of the currently visible notices, including ones
// in their closing transition.
func (b *NotificationBus) Active() []entity.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entity.Notification, 0, len(b.notices))
	for _, n := range b.notices {
		data := n.data
		data.Closing = n.closing
		out = append(out, data)
	}
	return out
}

// Subscribe registers a consumer of lifecycle events. The returned cancel
// function unregisters it and closes the channel.
func (b *NotificationBus) Subscribe() (<-chan entity.NotificationEvent, func()) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	ch := make(chan entity.NotificationEvent, eventBufferSize)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *NotificationBus) publish(data entity.Notification) {
	n := &notice{data: data}
	b.mu.Lock()
	b.notices[data.ID] = n
	n.expiryTimer = time.AfterFunc(data.TTL, func() { b.expire(data.ID) })
	b.emitLocked(entity.NotificationEvent{Type: entity.NotificationCreated, Notice: data})
	b.mu.Unlock()

	b.logger.Debug("Notice published",
		zap.String("id", data.ID),
		zap.String("kind", string(data.Kind)),
		zap.Duration("ttl", data.TTL))
}

// expire is the TTL path into the closing transition.
func (b *NotificationBus) expire(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.notices[id]
	if !ok || n.closing {
		return
	}
	b.beginClosingLocked(n)
}

// beginClosingLocked marks the notice closing, emits the event, and schedules
// the final removal after the grace period so renderers can play the fade.
func (b *NotificationBus) beginClosingLocked(n *notice) {
	n.closing = true
	data := n.data
	data.Closing = true
	b.emitLocked(entity.NotificationEvent{Type: entity.NotificationClosing, Notice: data})

	id := n.data.ID
	time.AfterFunc(b.cfg.RemovalGrace, func() {
		b.mu.Lock()
		removed, ok := b.notices[id]
		if ok {
			delete(b.notices, id)
			data := removed.data
			data.Closing = true
			b.emitLocked(entity.NotificationEvent{Type: entity.NotificationRemoved, Notice: data})
		}
		b.mu.Unlock()
	})
}

func (b *NotificationBus) emitLocked(event entity.NotificationEvent) {
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("Dropping notification event for slow subscriber",
				zap.String("noticeId", event.Notice.ID),
				zap.String("event", string(event.Type)))
		}
	}
}

// TruncateText shortens display text to max characters plus an ellipsis.
func TruncateText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

// TruncateHash renders a hash as its first 10 and last 8 characters joined
// with an ellipsis.
func TruncateHash(hash string) string {
	if len(hash) <= 18 {
		return hash
	}
	return hash[:10] + "..." + hash[len(hash)-8:]
}
