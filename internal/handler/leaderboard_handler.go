package handler

import (
	"net/http"
	"strconv"

	"github.com/examlet/examlet-backend/internal/response"
	"github.com/examlet/examlet-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LeaderboardHandler serves per-test rankings.
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// Top godoc
// GET /api/v1/tests/:test_id/leaderboard
// Returns the best scorers for a test, highest first.
func (h *LeaderboardHandler) Top(c *gin.Context) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	entries, err := h.leaderboardService.TopByTest(c.Request.Context(), testID, limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"leaderboard": entries})
}
