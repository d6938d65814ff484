package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sigilproject/sigil/internal/domain"
	"github.com/sigilproject/sigil/internal/service"
)

// FingerprintHandler handles fingerprint store and query endpoints.
type FingerprintHandler struct {
	fingerprints *service.FingerprintService
}

// NewFingerprintHandler creates a new fingerprint handler.
// Parameters:
//   - fingerprints: fingerprint service instance.
// Returns:
//   - *FingerprintHandler: initialized handler.
func NewFingerprintHandler(fingerprints *service.FingerprintService) *FingerprintHandler {
	return &FingerprintHandler{fingerprints: fingerprints}
}

// Store handles POST /api/v1/fingerprints.
func (h *FingerprintHandler) Store(c *gin.Context) {
	var req service.StoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	resp, err := h.fingerprints.Store(c.Request.Context(), &req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrBadFingerprint) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "Store failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Search handles POST /api/v1/search.
func (h *FingerprintHandler) Search(c *gin.Context) {
	var req service.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	resp, err := h.fingerprints.Search(c.Request.Context(), &req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrBadFingerprint) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "Search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Stats handles GET /api/v1/stats.
func (h *FingerprintHandler) Stats(c *gin.Context) {
	stats, err := h.fingerprints.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stats failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Delete handles DELETE /api/v1/fingerprints/:id.
func (h *FingerprintHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record id"})
		return
	}

	found, err := h.fingerprints.Delete(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Delete failed: " + err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
