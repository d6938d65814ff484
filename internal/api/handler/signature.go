package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sigilproject/sigil/internal/domain"
	"github.com/sigilproject/sigil/internal/identity"
	"github.com/sigilproject/sigil/internal/service"
)

// SignatureHandler handles signing and verification endpoints.
type SignatureHandler struct {
	signatures *service.SignatureService
}

// NewSignatureHandler creates a new signature handler.
// Parameters:
//   - signatures: signature service instance.
// Returns:
//   - *SignatureHandler: initialized handler.
func NewSignatureHandler(signatures *service.SignatureService) *SignatureHandler {
	return &SignatureHandler{signatures: signatures}
}

// SignRequest is the body of POST /api/v1/sign.
type SignRequest struct {
	HashHex  string         `json:"hash_hex" binding:"required"`
	Metadata domain.JSONMap `json:"metadata,omitempty"`
}

// Sign handles POST /api/v1/sign.
func (h *SignatureHandler) Sign(c *gin.Context) {
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	doc, err := h.signatures.Sign(c.Request.Context(), req.HashHex, req.Metadata)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrBadFingerprint):
			status = http.StatusBadRequest
		case errors.Is(err, identity.ErrNoIdentity):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": "Sign failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Verify handles POST /api/v1/verify. The document itself is the request
// body; verification failure is a 200 with valid=false, since a bad
// signature is a result, not a server error.
func (h *SignatureHandler) Verify(c *gin.Context) {
	var doc domain.SignatureDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	valid, reason := h.signatures.Verify(&doc)
	resp := gin.H{"valid": valid}
	if !valid {
		resp["reason"] = reason
	}
	c.JSON(http.StatusOK, resp)
}
