package entity

import "time"

// NotificationKind distinguishes the two notice shapes the bus emits.
type NotificationKind string

const (
	NotificationIntegrity NotificationKind = "integrity"
	NotificationGeneric   NotificationKind = "generic"
)

// Severity of a generic notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// IntegrityRole selects the notice templates for a hash-verification result:
// the sender sees "recorded in the blockchain", the recipient sees
// "confirmed by the blockchain".
type IntegrityRole string

const (
	RoleSender    IntegrityRole = "sender"
	RoleRecipient IntegrityRole = "recipient"
)

// VerificationData is optional on-chain metadata attached to an integrity
// notice.
type VerificationData struct {
	BlockNumber int64  `json:"blockNumber,omitempty"`
	Sender      string `json:"sender,omitempty"`
}

// IntegrityDetails is the kind-specific payload of an integrity notice.
// Text and hash previews are already truncated for display.
type IntegrityDetails struct {
	Role            IntegrityRole     `json:"role"`
	TextPreview     string            `json:"textPreview"`
	HashPreview     string            `json:"hashPreview"`
	TransactionHash string            `json:"transactionHash,omitempty"`
	TransactionURL  string            `json:"transactionUrl,omitempty"`
	Verification    *VerificationData `json:"verification,omitempty"`
}

// Notification is one independent, self-expiring notice. It stays visible
// until its TTL elapses or the user dismisses it, whichever comes first.
type Notification struct {
	ID        string            `json:"id"`
	Kind      NotificationKind  `json:"kind"`
	Icon      string            `json:"icon"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Severity  Severity          `json:"severity"`
	Integrity *IntegrityDetails `json:"integrity,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	TTL       time.Duration     `json:"ttlMs"`
	Closing   bool              `json:"closing"`
}

// NotificationEventType describes a lifecycle transition on the bus stream.
type NotificationEventType string

const (
	NotificationCreated NotificationEventType = "created"
	NotificationClosing NotificationEventType = "closing"
	NotificationRemoved NotificationEventType = "removed"
)

// NotificationEvent is published to bus subscribers; the rendering layer
// consumes these instead of touching bus state directly.
type NotificationEvent struct {
	Type   NotificationEventType `json:"type"`
	Notice Notification          `json:"notice"`
}
