package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrNotExamRequester ErrCode = "NOT_EXAM_REQUESTER"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Generation ────────────────────────────────────────────────────
	ErrGenerationInProgress ErrCode = "GENERATION_IN_PROGRESS"
	ErrGenerationFailed     ErrCode = "GENERATION_FAILED"
	ErrExamNotReady         ErrCode = "EXAM_NOT_READY"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

var messages = map[ErrCode]string{
	ErrTokenRequired: "An authentication token is required.",
	ErrTokenInvalid:  "The authentication token is invalid.",
	ErrTokenExpired:  "The authentication token has expired.",

	ErrForbidden:        "You do not have permission to access this resource.",
	ErrNotExamRequester: "You did not request this exam.",

	ErrValidation:     "Validation failed. Please check your input.",
	ErrInvalidID:      "Invalid ID format.",
	ErrInvalidPayload: "Invalid request payload.",

	ErrNotFound: "Resource not found.",
	ErrConflict: "Resource already exists.",

	ErrGenerationInProgress: "A generation is already running for this exam.",
	ErrGenerationFailed:     "The exam generation failed.",
	ErrExamNotReady:         "This exam is still being generated.",

	ErrRateLimitExceeded: "Too many requests. Please try again later.",

	ErrInternal: "An internal server error occurred.",
}

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "An unexpected error occurred."
}
