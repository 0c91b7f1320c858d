package entity

import "fmt"

// Backend error codes with a known classification.
const (
	BackendCodePermissionDenied = 17
	BackendCodeRateLimited      = 4
	BackendCodeInvalidToken     = 40
)

// BackendError is an error reported by the chat backend. The backend always
// attaches a numeric code; the human-readable text arrives in Message or,
// for some endpoints, in Detail.
type BackendError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Text())
}

// Text returns the backend's message, falling back to the detail field.
func (e *BackendError) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Detail
}

// ErrorCategory is the stable taxonomy backend errors are classified into.
type ErrorCategory string

const (
	CategoryPermissionDenied ErrorCategory = "permission_denied"
	CategoryRateLimited      ErrorCategory = "rate_limited"
	CategoryInvalidToken     ErrorCategory = "invalid_token"
	CategoryUnknown          ErrorCategory = "unknown"
)

// ClassifiedError pairs a backend error's original message with its category
// and an actionable remediation hint. Derived, never persisted.
type ClassifiedError struct {
	Category   ErrorCategory `json:"category"`
	Message    string        `json:"message"`
	Suggestion string        `json:"suggestion"`
}

// UserRecord is the user shape presented to the chat backend on upsert and
// returned by user queries.
type UserRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Image         string `json:"image,omitempty"`
	Role          string `json:"role,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
	AuthType      string `json:"auth_type,omitempty"`
}

// ChannelParams carries the creation/watch parameters for a channel.
type ChannelParams struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// ChannelHandle is an opaque reference to an acquired channel. Ownership
// passes to the caller of the acquisition; nothing here retains it.
type ChannelHandle struct {
	Type    string   `json:"type"`
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Members []string `json:"members,omitempty"`
}
