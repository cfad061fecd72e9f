package handler

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kevinluu/screenline/internal/api/middleware"
	"github.com/kevinluu/screenline/internal/storage"
)

const signedUploadTTL = 15 * time.Minute

// UploadHandler hands out pre-authorized CV upload slots.
type UploadHandler struct {
	storage storage.ObjectStorage
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(store storage.ObjectStorage) *UploadHandler {
	return &UploadHandler{storage: store}
}

type signUploadRequest struct {
	FileName string `json:"file_name" binding:"required"`
}

// SignUpload creates a signed upload URL for a CV file. Only the two
// supported CV formats are accepted.
func (h *UploadHandler) SignUpload(c *gin.Context) {
	log := middleware.GetLogger(c)

	var req signUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_name is required"})
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(req.FileName), "."))
	switch ext {
	case "pdf", "docx", "doc":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported file type %q, expected pdf or docx", ext)})
		return
	}

	key := fmt.Sprintf("cvs/%s.%s", uuid.New().String(), ext)
	signed, err := h.storage.SignedUploadURL(c.Request.Context(), key, signedUploadTTL)
	if err != nil {
		log.WithError(err).Error("Failed to create signed upload URL")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"upload_url": signed.UploadURL,
		"key":        signed.Key,
		"public_url": signed.PublicURL,
		"expires_in": int(signed.ExpiresIn.Seconds()),
	})
}
