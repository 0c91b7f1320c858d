package usecase

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AleksandrWhite-T/SecureMessenger/internal/config"
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/entity"
)

func testBus() *NotificationBus {
	cfg := config.NotifierConfig{
		IntegrityTTL: 60 * time.Millisecond,
		DefaultTTL:   40 * time.Millisecond,
		ErrorTTL:     50 * time.Millisecond,
		RemovalGrace: 20 * time.Millisecond,
	}
	return NewNotificationBus(cfg, entity.PolygonMainnet, zap.NewNop())
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 50))
	long := strings.Repeat("a", 60)
	assert.Equal(t, strings.Repeat("a", 50)+"...", TruncateText(long, 50))
	assert.Equal(t, strings.Repeat("a", 50), TruncateText(strings.Repeat("a", 50), 50))
}

func TestTruncateHash(t *testing.T) {
	hash := "0x1234567890abcdef1234567890abcdef12345678"
	assert.Equal(t, "0x12345678...12345678", TruncateHash(hash))
	assert.Equal(t, "0xdeadbeef", TruncateHash("0xdeadbeef"))
}

func TestNotificationBus_IntegritySenderNotice(t *testing.T) {
	bus := testBus()
	text := strings.Repeat("x", 70)
	txHash := "0xabcdef1234567890abcdef1234567890abcdef1234567890abcdef1234567890"

	n := bus.NotifyIntegrity(entity.RoleSender, text, "0x1234567890abcdef1234567890abcdef12345678", txHash,
		&entity.VerificationData{BlockNumber: 12345678})

	assert.Equal(t, entity.NotificationIntegrity, n.Kind)
	assert.Equal(t, "Message verified", n.Title)
	assert.Equal(t, 60*time.Millisecond, n.TTL)
	require.NotNil(t, n.Integrity)
	assert.Equal(t, strings.Repeat("x", 50)+"...", n.Integrity.TextPreview)
	assert.Equal(t, "0x12345678...12345678", n.Integrity.HashPreview)
	assert.Equal(t, "0xabcdef12...34567890", n.Integrity.TransactionHash)
	assert.Equal(t, "https://polygonscan.com/tx/"+txHash, n.Integrity.TransactionURL)
	require.NotNil(t, n.Integrity.Verification)
	assert.Equal(t, int64(12345678), n.Integrity.Verification.BlockNumber)
}

func TestNotificationBus_IntegrityRecipientNotice(t *testing.T) {
	bus := testBus()

	n := bus.NotifyIntegrity(entity.RoleRecipient, "hello", "0xfedcba0987654321fedcba0987654321fedcba09", "", nil)

	assert.Equal(t, "Verified message received", n.Title)
	require.NotNil(t, n.Integrity)
	assert.Equal(t, "hello", n.Integrity.TextPreview)
	assert.Empty(t, n.Integrity.TransactionHash, "no link without a transaction hash")
	assert.Empty(t, n.Integrity.TransactionURL)
}

func TestNotificationBus_VerificationErrorNotice(t *testing.T) {
	bus := testBus()
	text := strings.Repeat("y", 40)

	n := bus.NotifyVerificationError(text, errors.New("contract call reverted"))

	assert.Equal(t, entity.SeverityError, n.Severity)
	assert.Equal(t, 50*time.Millisecond, n.TTL)
	assert.Contains(t, n.Message, strings.Repeat("y", 30)+"...")
	assert.Contains(t, n.Message, "contract call reverted")
}

func TestNotificationBus_AutoExpiry(t *testing.T) {
	bus := testBus()
	events, cancel := bus.Subscribe()
	defer cancel()

	n := bus.Notify("INFO", "Test", "body", entity.SeverityInfo, 0)
	assert.Equal(t, 40*time.Millisecond, n.TTL, "zero ttl uses the configured default")
	require.Len(t, bus.Active(), 1)

	created := <-events
	assert.Equal(t, entity.NotificationCreated, created.Type)

	closing := <-events
	assert.Equal(t, entity.NotificationClosing, closing.Type)
	assert.Equal(t, n.ID, closing.Notice.ID)

	removed := <-events
	assert.Equal(t, entity.NotificationRemoved, removed.Type)
	assert.Empty(t, bus.Active())
}

func TestNotificationBus_DismissCancelsExpiry(t *testing.T) {
	bus := testBus()
	events, cancel := bus.Subscribe()
	defer cancel()

	n := bus.Notify("INFO", "Test", "body", entity.SeverityInfo, time.Hour)
	<-events // created

	require.True(t, bus.Dismiss(n.ID))
	closing := <-events
	assert.Equal(t, entity.NotificationClosing, closing.Type)
	removed := <-events
	assert.Equal(t, entity.NotificationRemoved, removed.Type)
	assert.Empty(t, bus.Active())

	// A second dismissal is a no-op, and the cancelled TTL timer must not
	// produce another closing/removal pair.
	assert.False(t, bus.Dismiss(n.ID))
	select {
	case ev, ok := <-events:
		if ok {
			t.Fatalf("unexpected event %s after removal", ev.Type)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotificationBus_NoticesAreIndependent(t *testing.T) {
	bus := testBus()

	a := bus.Notify("INFO", "A", "body", entity.SeverityInfo, time.Hour)
	b := bus.Notify("INFO", "B", "body", entity.SeverityInfo, time.Hour)
	require.Len(t, bus.Active(), 2)

	require.True(t, bus.Dismiss(a.ID))
	require.Eventually(t, func() bool {
		return len(bus.Active()) == 1
	}, time.Second, eventuallyTick)

	remaining := bus.Active()
	assert.Equal(t, b.ID, remaining[0].ID, "dismissing one notice must not touch the others")
	assert.False(t, remaining[0].Closing)
}

func TestNotificationBus_DismissUnknownID(t *testing.T) {
	bus := testBus()
	assert.False(t, bus.Dismiss("nope"))
}
