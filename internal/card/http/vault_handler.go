// Package http provides the HTTP handlers for the card vault operations. Every handler answers
// 200 with the operation envelope; only malformed bodies are rejected before the vault runs.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dario/cardvault/internal/card/http/dto"
	"github.com/dario/cardvault/internal/card/usecase"
	"github.com/dario/cardvault/internal/httputil"
	customValidation "github.com/dario/cardvault/internal/validation"
)

// VaultHandler handles the card vault endpoints.
type VaultHandler struct {
	vaultUseCase usecase.VaultUseCase
	logger       *slog.Logger
}

// NewVaultHandler creates a new vault handler.
func NewVaultHandler(vaultUseCase usecase.VaultUseCase, logger *slog.Logger) *VaultHandler {
	return &VaultHandler{
		vaultUseCase: vaultUseCase,
		logger:       logger,
	}
}

// RegisterRoutes mounts the card endpoints on group. middleware runs before every card
// handler except the health probe.
func (h *VaultHandler) RegisterRoutes(group *gin.RouterGroup, middleware ...gin.HandlerFunc) {
	card := group.Group("/card")
	card.GET("/health", h.HealthHandler)

	protected := card.Group("", middleware...)
	protected.POST("/pool", h.PoolHandler)
	protected.POST("/id", h.IDHandler)
	protected.POST("/data", h.DataHandler)
}

// PoolHandler vaults a card.
// POST /api/card/pool
func (h *VaultHandler) PoolHandler(c *gin.Context) {
	var req dto.CardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.ValidateStore(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	response := h.vaultUseCase.Store(c.Request.Context(), req.ToVaultRequest())
	c.JSON(http.StatusOK, response)
}

// IDHandler returns the stored record with encrypted fields.
// POST /api/card/id
func (h *VaultHandler) IDHandler(c *gin.Context) {
	req, ok := h.bindLookup(c)
	if !ok {
		return
	}

	response := h.vaultUseCase.GetByID(c.Request.Context(), req.CardID)
	c.JSON(http.StatusOK, response)
}

// DataHandler returns the stored record with the PAN and expiry decrypted.
// POST /api/card/data
func (h *VaultHandler) DataHandler(c *gin.Context) {
	req, ok := h.bindLookup(c)
	if !ok {
		return
	}

	response := h.vaultUseCase.GetDecryptedByID(c.Request.Context(), req.CardID)
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, response)
}

// HealthHandler reports whether the query target answers the health probe.
// GET /api/card/health
func (h *VaultHandler) HealthHandler(c *gin.Context) {
	response := h.vaultUseCase.HealthCheck(c.Request.Context())
	c.JSON(http.StatusOK, response.Item)
}

func (h *VaultHandler) bindLookup(c *gin.Context) (dto.CardRequest, bool) {
	var req dto.CardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return req, false
	}

	if err := req.ValidateLookup(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return req, false
	}
	return req, true
}
