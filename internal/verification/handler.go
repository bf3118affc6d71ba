package verification

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"zentasks/verification-backend/internal/auth"
)

// Handler handles HTTP requests for proof verification
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new verification handler
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers verification routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/verify-task-proof", h.verifyTaskProof)
	rg.GET("/verifications", h.listVerifications)
	rg.GET("/verifications/summary", h.getSummary)
	rg.GET("/verifications/:id/image", h.getProofImage)
}

// verifyTaskProof handles POST /api/v1/verify-task-proof
func (h *Handler) verifyTaskProof(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	req := VerifyProofRequest{
		UserID:          userID,
		TaskID:          c.PostForm("taskId"),
		TaskTitle:       c.PostForm("taskTitle"),
		TaskDescription: c.PostForm("taskDescription"),
	}

	if file, err := c.FormFile("image"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open uploaded image"})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read uploaded image"})
			return
		}
		req.Image = ProofImage{
			Data:        data,
			ContentType: file.Header.Get("Content-Type"),
			Filename:    file.Filename,
			Size:        file.Size,
		}
	}

	verification, err := h.service.VerifyProof(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("verify-task-proof failed",
			zap.String("task_id", req.TaskID),
			zap.Error(err))
		c.JSON(HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"verification": verification,
	})
}

// listVerifications handles GET /api/v1/verifications
func (h *Handler) listVerifications(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var taskID *string
	if t := c.Query("taskId"); t != "" {
		taskID = &t
	}

	records, err := h.service.ListVerifications(c.Request.Context(), userID, taskID)
	if err != nil {
		h.logger.Error("Failed to list verifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, records)
}

// getProofImage handles GET /api/v1/verifications/:id/image
func (h *Handler) getProofImage(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	data, contentType, err := h.service.GetProofImage(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to load proof image",
			zap.String("verification_id", c.Param("id")),
			zap.Error(err))
		c.JSON(HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, contentType, data)
}

// getSummary handles GET /api/v1/verifications/summary
func (h *Handler) getSummary(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load verification summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
