package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/examlet/examlet-backend/internal/middleware"
	"github.com/examlet/examlet-backend/internal/model"
	"github.com/examlet/examlet-backend/internal/response"
	"github.com/examlet/examlet-backend/internal/service"
	"github.com/examlet/examlet-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TestHandler handles admin test management.
type TestHandler struct {
	testService   *service.TestService
	resultService *service.ResultService
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(testService *service.TestService, resultService *service.ResultService) *TestHandler {
	return &TestHandler{testService: testService, resultService: resultService}
}

func failTestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTestNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrTestNotFound)
	case errors.Is(err, service.ErrNotTestOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotTestOwner)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// List godoc
// GET /api/v1/admin/tests
// Lists the authenticated admin's tests, paginated.
func (h *TestHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	tests, pagination, err := h.testService.ListByAdmin(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"tests": tests}, pagination)
}

// Get godoc
// GET /api/v1/admin/tests/:test_id
func (h *TestHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	test, err := h.testService.GetByID(c.Request.Context(), testID)
	if err != nil {
		failTestError(c, err)
		return
	}
	if test.AdminID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrNotTestOwner)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// Create godoc
// POST /api/v1/admin/tests
// Creates a test in the inactive state. Publish makes it visible to students.
func (h *TestHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test := &model.Test{
		Title:           req.Title,
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      req.TotalMarks,
		PassingMarks:    req.PassingMarks,
		AdminID:         claims.UserID,
	}
	if err := h.testService.Create(c.Request.Context(), test); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"test": test})
}

// Update godoc
// PUT /api/v1/admin/tests/:test_id
func (h *TestHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, err := h.testService.GetByID(c.Request.Context(), testID)
	if err != nil {
		failTestError(c, err)
		return
	}

	if req.Title != "" {
		test.Title = req.Title
	}
	if req.DurationMinutes != 0 {
		test.DurationMinutes = req.DurationMinutes
	}
	if req.TotalMarks != nil {
		test.TotalMarks = *req.TotalMarks
	}
	if req.PassingMarks != nil {
		test.PassingMarks = *req.PassingMarks
	}
	if req.IsActive != nil {
		test.IsActive = *req.IsActive
	}
	if test.PassingMarks > test.TotalMarks {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		return
	}

	if err := h.testService.Update(c.Request.Context(), claims.UserID, test); err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// Publish godoc
// POST /api/v1/admin/tests/:test_id/publish
// Warms the Redis payload and activates the test.
func (h *TestHandler) Publish(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate godoc
// POST /api/v1/admin/tests/:test_id/deactivate
func (h *TestHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *TestHandler) setActive(c *gin.Context, active bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if active {
		err = h.testService.Publish(c.Request.Context(), testID, claims.UserID)
	} else {
		err = h.testService.Deactivate(c.Request.Context(), testID, claims.UserID)
	}
	if err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"is_active": active})
}

// RefreshCache godoc
// POST /api/v1/admin/tests/:test_id/refresh-cache
// Rebuilds the Redis payload from PostgreSQL.
func (h *TestHandler) RefreshCache(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	test, err := h.testService.GetByID(c.Request.Context(), testID)
	if err != nil {
		failTestError(c, err)
		return
	}
	if test.AdminID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrNotTestOwner)
		return
	}

	if err := h.testService.WarmTestCache(c.Request.Context(), test); err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Delete godoc
// DELETE /api/v1/admin/tests/:test_id
// Deletes a test. Stored results keep a dangling reference and stay readable.
func (h *TestHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.testService.Delete(c.Request.Context(), testID, claims.UserID); err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ListResults godoc
// GET /api/v1/admin/tests/:test_id/results
// Paginated result report for a test the admin owns.
func (h *TestHandler) ListResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	results, total, err := h.resultService.ListByTest(c.Request.Context(), testID, claims.UserID, perPage, (page-1)*perPage)
	if err != nil {
		failTestError(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}
