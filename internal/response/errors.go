package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_ALREADY_REGISTERED"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"
	ErrNotQuizAuthor     ErrCode = "NOT_QUIZ_AUTHOR"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Quiz-specific ─────────────────────────────────────────────────
	ErrQuizNotAvailable   ErrCode = "QUIZ_NOT_AVAILABLE"
	ErrNoQuestions        ErrCode = "NO_QUESTIONS"
	ErrMaxAttemptsReached ErrCode = "MAX_ATTEMPTS_REACHED"
	ErrAttemptNotFound    ErrCode = "ATTEMPT_NOT_FOUND"
	ErrNoActiveAttempt    ErrCode = "NO_ACTIVE_ATTEMPT"
	ErrAttemptClosed      ErrCode = "ATTEMPT_CLOSED"
	ErrAnswerLocked       ErrCode = "ANSWER_LOCKED"
	ErrNavigationDisabled ErrCode = "NAVIGATION_DISABLED"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Incorrect email or password."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."
	case ErrNotQuizAuthor:
		return "You are not the author of this quiz."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Quiz-specific ─────────────────────────────────────────────────
	case ErrQuizNotAvailable:
		return "This quiz is not currently available."
	case ErrNoQuestions:
		return "This quiz has no questions."
	case ErrMaxAttemptsReached:
		return "You have used all allowed attempts for this quiz."
	case ErrAttemptNotFound:
		return "Attempt not found."
	case ErrNoActiveAttempt:
		return "You have no attempt in progress."
	case ErrAttemptClosed:
		return "This attempt has already been closed."
	case ErrAnswerLocked:
		return "This question has already been answered."
	case ErrNavigationDisabled:
		return "Navigating between questions is disabled for this quiz."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file is required for this upload."
	case ErrUnsupportedFile:
		return "This file type is not supported."
	case ErrFileTooLarge:
		return "The uploaded file exceeds the size limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
