package session

import (
	"log/slog"
	"net/http"

	"github.com/ledgerline/expensed/internal/auth"
	"github.com/ledgerline/expensed/internal/cache"
	"github.com/ledgerline/expensed/internal/server/features/common"
)

// Handlers provides HTTP handlers for the session feature.
type Handlers struct {
	issuer *auth.Issuer
	cache  cache.Cache
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance. The issuer may be nil
// when only the authenticated routes are mounted.
func NewHandlers(issuer *auth.Issuer, c cache.Cache, logger *slog.Logger) *Handlers {
	return &Handlers{issuer: issuer, cache: c, logger: logger}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Logout revokes the presented access token by blocklisting its id.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		common.Error(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := h.cache.BlockToken(r.Context(), claims.JTI); err != nil {
		h.logger.Error("failed to revoke token", "error", err)
		common.Error(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	common.Message(w, http.StatusOK, "successfully logged out")
}

// Refresh exchanges a valid refresh token for a new token pair.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := common.Decode(r, &req); err != nil {
		common.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		common.Error(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	claims, err := h.issuer.Verify(req.RefreshToken)
	if err != nil {
		common.Error(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}
	if !claims.Refresh {
		common.Error(w, http.StatusUnauthorized, "token is not a refresh token")
		return
	}

	blocked, err := h.cache.TokenBlocked(r.Context(), claims.JTI)
	if err != nil {
		// Revocation is best effort. An unreachable blocklist must
		// not lock users out.
		h.logger.Warn("token blocklist check failed", "error", err)
	}
	if blocked {
		common.Error(w, http.StatusUnauthorized, "token has been revoked")
		return
	}

	access, refresh, err := h.issuer.IssuePair(claims.UserID)
	if err != nil {
		h.logger.Error("failed to issue token pair", "error", err)
		common.Error(w, http.StatusInternalServerError, "failed to issue tokens")
		return
	}

	common.JSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	})
}
