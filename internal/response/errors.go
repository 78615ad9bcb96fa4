package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrOTPInvalid          ErrCode = "OTP_INVALID"
	ErrOTPCooldown         ErrCode = "OTP_COOLDOWN"
	ErrOTPAttemptsExceeded ErrCode = "OTP_ATTEMPTS_EXCEEDED"
	ErrSessionRevoked      ErrCode = "SESSION_REVOKED"
	ErrTokenRequired       ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid        ErrCode = "TOKEN_INVALID"
	ErrTokenWrongType      ErrCode = "TOKEN_WRONG_TYPE"

	// ─── Profile ───────────────────────────────────────────────────────
	ErrProfileExists   ErrCode = "PROFILE_EXISTS"
	ErrProfileRequired ErrCode = "PROFILE_REQUIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound    ErrCode = "NOT_FOUND"
	ErrNoActiveSet ErrCode = "NO_ACTIVE_SET"
	ErrPracticeOff ErrCode = "PRACTICE_DISABLED"

	// ─── Session ───────────────────────────────────────────────────────
	ErrInvalidAction     ErrCode = "INVALID_ACTION"
	ErrInvalidTransition ErrCode = "INVALID_TRANSITION"
	ErrUnknownOption     ErrCode = "UNKNOWN_OPTION"
	ErrIndexOutOfRange   ErrCode = "INDEX_OUT_OF_RANGE"
	ErrNoSelection       ErrCode = "NO_SELECTION"
	ErrSubmitFailed      ErrCode = "SUBMIT_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrOTPInvalid:
		return "The code is invalid or has expired."
	case ErrOTPCooldown:
		return "A code was sent recently. Please wait before requesting another."
	case ErrOTPAttemptsExceeded:
		return "Too many wrong codes. Request a new one."
	case ErrSessionRevoked:
		return "Your login has ended. Please sign in again."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."
	case ErrTokenWrongType:
		return "This token cannot be used here."

	// ─── Profile ───────────────────────────────────────────────────────
	case ErrProfileExists:
		return "A profile already exists for this mobile number."
	case ErrProfileRequired:
		return "Complete your profile before continuing."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrNoActiveSet:
		return "No question set is available right now."
	case ErrPracticeOff:
		return "Practice downloads are disabled on this server."

	// ─── Session ───────────────────────────────────────────────────────
	case ErrInvalidAction:
		return "Unknown session action."
	case ErrInvalidTransition:
		return "That action is not allowed at this point of the exam."
	case ErrUnknownOption:
		return "The selected option does not belong to this question."
	case ErrIndexOutOfRange:
		return "There is no question at that position."
	case ErrNoSelection:
		return "Select an option first."
	case ErrSubmitFailed:
		return "Your answers could not be saved."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
