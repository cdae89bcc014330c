package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/dietsupport/internal/api/middleware"
	"github.com/timmy/dietsupport/internal/domain"
	"github.com/timmy/dietsupport/internal/service"
)

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	// Image is a base64 JPEG, PNG, GIF or WebP photo, optionally as a data: URL.
	Image string `json:"image" binding:"required"`
}

// FridgeResponse is the current fridge status.
type FridgeResponse struct {
	Foods []domain.FoodItem `json:"foods"`
	Date  time.Time         `json:"date"`
}

// FridgeHandler handles fridge analysis and history endpoints.
type FridgeHandler struct {
	fridgeService *service.FridgeService
	maxImageBytes int
}

// NewFridgeHandler creates a new fridge handler.
// Parameters:
//   - fridgeService: fridge reconciler.
//   - maxImageBytes: largest accepted decoded photo; <= 0 means no limit.
//
// Returns:
//   - *FridgeHandler: initialized handler.
func NewFridgeHandler(fridgeService *service.FridgeService, maxImageBytes int) *FridgeHandler {
	return &FridgeHandler{
		fridgeService: fridgeService,
		maxImageBytes: maxImageBytes,
	}
}

// Analyze handles POST /analyze.
func (h *FridgeHandler) Analyze(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	img, err := service.DecodeImagePayload(req.Image, h.maxImageBytes)
	if err != nil {
		middleware.GetLogger(c).WithError(err).Info("Rejected image payload")
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid image"})
		return
	}

	snapshot, err := h.fridgeService.Dispatch(c.Request.Context(), userID, img)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": service.UserMessage(err)})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// Current handles GET /fridge.
func (h *FridgeHandler) Current(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	status, err := h.fridgeService.CurrentStatus(c.Request.Context(), userID)
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Fridge status not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": service.UserMessage(err)})
		return
	}

	c.JSON(http.StatusOK, FridgeResponse{
		Foods: status.Status.Foods,
		Date:  status.Date,
	})
}

// Intake handles GET /intake with an optional RFC3339 "since" query parameter.
func (h *FridgeHandler) Intake(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid since: expected RFC3339 timestamp"})
			return
		}
		since = parsed
	}

	summary, err := h.fridgeService.IntakeHistory(c.Request.Context(), userID, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": service.UserMessage(err)})
		return
	}

	c.JSON(http.StatusOK, summary)
}
