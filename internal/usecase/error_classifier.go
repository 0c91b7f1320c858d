package usecase

import (
	"github.com/AleksandrWhite-T/SecureMessenger/internal/domain/entity"
)

// classification rows keyed by backend error code. Unmapped codes fall
// through to the unknown default.
var classifications = map[int]entity.ClassifiedError{
	entity.BackendCodePermissionDenied: {
		Category:   entity.CategoryPermissionDenied,
		Message:    "No permission for this operation",
		Suggestion: "Check dashboard roles",
	},
	entity.BackendCodeRateLimited: {
		Category:   entity.CategoryRateLimited,
		Message:    "Rate limited",
		Suggestion: "Wait and retry",
	},
	entity.BackendCodeInvalidToken: {
		Category:   entity.CategoryInvalidToken,
		Message:    "Invalid token",
		Suggestion: "Check token configuration",
	},
}

// Classify maps a backend error onto the stable category taxonomy with a
// remediation hint. The category and suggestion derive solely from the code;
// the backend's own message is carried through whenever it is present. Pure
// function, never fails.
func Classify(err *entity.BackendError) entity.ClassifiedError {
	result, ok := classifications[err.Code]
	if !ok {
		result = entity.ClassifiedError{
			Category:   entity.CategoryUnknown,
			Suggestion: "Check diagnostic output",
		}
	}
	if text := err.Text(); text != "" {
		result.Message = text
	}
	return result
}
