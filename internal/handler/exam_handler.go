package handler

import (
	"errors"
	"net/http"

	"github.com/examlet/examlet-backend/internal/middleware"
	"github.com/examlet/examlet-backend/internal/model"
	"github.com/examlet/examlet-backend/internal/response"
	"github.com/examlet/examlet-backend/internal/service"
	"github.com/examlet/examlet-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExamHandler handles the student-facing exam flow: browsing tests, pulling
// the question payload, submitting answers, and reading results.
type ExamHandler struct {
	testService       *service.TestService
	submissionService *service.SubmissionService
	resultService     *service.ResultService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(
	testService *service.TestService,
	submissionService *service.SubmissionService,
	resultService *service.ResultService,
) *ExamHandler {
	return &ExamHandler{
		testService:       testService,
		submissionService: submissionService,
		resultService:     resultService,
	}
}

// ListTests godoc
// GET /api/v1/tests
// Lists tests currently open to students.
func (h *ExamHandler) ListTests(c *gin.Context) {
	tests, err := h.testService.ListActive(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"tests": tests})
}

// GetTest godoc
// GET /api/v1/tests/:test_id
// Returns a single test summary if it is open to students.
func (h *ExamHandler) GetTest(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	test, err := h.testService.GetByID(c.Request.Context(), testID)
	if err != nil {
		if errors.Is(err, service.ErrTestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrTestNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if !test.IsActive {
		response.Fail(c, http.StatusForbidden, response.ErrTestNotActive)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// GetTestPayload godoc
// GET /api/v1/tests/:test_id/questions
// Returns the cached exam payload. Correct answers are never included.
func (h *ExamHandler) GetTestPayload(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	payload, err := h.testService.GetTestPayload(c.Request.Context(), testID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTestNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrTestNotFound)
		case errors.Is(err, service.ErrTestNotActive):
			response.Fail(c, http.StatusForbidden, response.ErrTestNotActive)
		case errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": payload})
}

// Submit godoc
// POST /api/v1/exam/submit
// Scores and persists one attempt. A missing answers array is a malformed
// request; an empty one is a valid all-skipped submission.
func (h *ExamHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.Answers == nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSubmission)
		return
	}

	result, err := h.submissionService.Submit(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		if errors.Is(err, service.ErrTestNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrTestNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Exam submitted successfully",
		"result":  result,
	})
}

// GetResult godoc
// GET /api/v1/exam/result/:result_id
// Returns a result with its test and surviving questions resolved. The test
// may be null when it was deleted after submission.
func (h *ExamHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	resultID, err := uuid.Parse(c.Param("result_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.resultService.GetDetail(c.Request.Context(), resultID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrResultNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"result":    detail.Result,
		"test":      detail.Test,
		"questions": detail.Questions,
	})
}

// ListResults godoc
// GET /api/v1/exam/results/:student_id
// Lists a student's results. Students can only read their own history.
func (h *ExamHandler) ListResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	studentID, err := uuid.Parse(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	if studentID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	summaries, err := h.resultService.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": summaries})
}
