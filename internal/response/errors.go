package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrIdentityDown       ErrCode = "IDENTITY_UNAVAILABLE"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Roster & attendance ───────────────────────────────────────────
	ErrStoreRead            ErrCode = "STORE_READ_FAILED"
	ErrStoreWrite           ErrCode = "STORE_WRITE_FAILED"
	ErrAttendanceSave       ErrCode = "ATTENDANCE_SAVE_FAILED"
	ErrAttendanceInit       ErrCode = "ATTENDANCE_INIT_FAILED"
	ErrUnknownStudent       ErrCode = "UNKNOWN_STUDENT"
	ErrDayOutOfRange        ErrCode = "DAY_OUT_OF_RANGE"
	ErrRequestCanceled      ErrCode = "REQUEST_CANCELED"
	ErrUnsupportedWSMessage ErrCode = "UNSUPPORTED_MESSAGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimited ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."
	case ErrIdentityDown:
		return "Sign-in is temporarily unavailable."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Please fill in all required fields."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Roster & attendance ───────────────────────────────────────────
	case ErrStoreRead:
		return "Failed to load data."
	case ErrStoreWrite:
		return "Failed to save changes."
	case ErrAttendanceSave:
		return "Failed to save attendance."
	case ErrAttendanceInit:
		return "Student added, but the attendance record could not be created."
	case ErrUnknownStudent:
		return "The student is not on this sheet."
	case ErrDayOutOfRange:
		return "The day is outside this month."
	case ErrRequestCanceled:
		return "The request was canceled."
	case ErrUnsupportedWSMessage:
		return "Unsupported message."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimited:
		return "Too many attempts. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
