package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// Authentication
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// Authorization
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"

	// Validation
	ErrValidation        ErrCode = "VALIDATION_ERROR"
	ErrInvalidID         ErrCode = "INVALID_ID"
	ErrInvalidSubmission ErrCode = "INVALID_SUBMISSION"

	// Resources
	ErrNotFound       ErrCode = "NOT_FOUND"
	ErrConflict       ErrCode = "CONFLICT"
	ErrTestNotFound   ErrCode = "TEST_NOT_FOUND"
	ErrResultNotFound ErrCode = "RESULT_NOT_FOUND"

	// Exam-specific
	ErrTestNotActive     ErrCode = "TEST_NOT_ACTIVE"
	ErrNoQuestions       ErrCode = "NO_QUESTIONS"
	ErrNotTestOwner      ErrCode = "NOT_TEST_OWNER"
	ErrAmbiguousCorrect  ErrCode = "AMBIGUOUS_CORRECT_OPTION"
	ErrQuestionWrongTest ErrCode = "QUESTION_WRONG_TEST"
	ErrPayloadNotCached  ErrCode = "TEST_NOT_PUBLISHED"
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// Server
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "Authentication token required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidSubmission:
		return "Invalid submission shape."
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrTestNotFound:
		return "Test not found."
	case ErrResultNotFound:
		return "Result not found."
	case ErrTestNotActive:
		return "This test is not currently available."
	case ErrNoQuestions:
		return "This test has no questions."
	case ErrNotTestOwner:
		return "You are not the owner of this test."
	case ErrAmbiguousCorrect:
		return "A question must have exactly one correct option."
	case ErrQuestionWrongTest:
		return "Question does not belong to this test."
	case ErrPayloadNotCached:
		return "This test has not been published."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
