package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/guildgate/guildgate-auth/internal/domain"
	"github.com/guildgate/guildgate-auth/internal/service"
)

// AuthHandler exposes the credential lifecycle flows over HTTP.
type AuthHandler struct {
	Credentials service.CredentialService
	Logger      *zap.Logger
}

// NewAuthHandler creates the handler set.
func NewAuthHandler(credentials service.CredentialService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{Credentials: credentials, Logger: logger}
}

// Start redirects the user to the provider's consent screen.
// TODO: add a signed state cookie and verify it in Callback.
func (h *AuthHandler) Start(c *gin.Context) {
	authorizeURL, err := h.Credentials.AuthorizeURL()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": err.Error()})
		return
	}
	c.Redirect(http.StatusFound, authorizeURL)
}

// Callback completes the authorization flow: exchange, persist, resolve,
// provision. Provisioning outcomes are reported in the response body; only
// transport-level failures map to error statuses.
func (h *AuthHandler) Callback(c *gin.Context) {
	if provErr := c.Query("error"); provErr != "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             provErr,
			"error_description": c.Query("error_description"),
		})
		return
	}

	code := strings.TrimSpace(c.Query("code"))
	res, err := h.Credentials.CompleteAuthorization(c.Request.Context(), code)
	if err != nil {
		h.renderFlowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subject_id": res.SubjectID,
		"outcome":    res.Provision.Outcome,
		"detail":     res.Provision.Detail,
		"expires_at": res.Credential.ExpiresAt().Unix(),
	})
}

// Refresh mints a new credential from the stored refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	key := strings.TrimSpace(c.PostForm("user_id"))
	if key == "" {
		key = strings.TrimSpace(c.Query("user_id"))
	}

	cred, err := h.Credentials.RefreshCredential(c.Request.Context(), key)
	if err != nil {
		h.renderFlowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": cred, "expires_at": cred.ExpiresAt().Unix()})
}

// Token is the read-only credential accessor for dashboards and the bot.
func (h *AuthHandler) Token(c *gin.Context) {
	key := strings.TrimSpace(c.Query("user_id"))

	cred, err := h.Credentials.GetCredential(c.Request.Context(), key)
	if err != nil {
		h.renderFlowError(c, err)
		return
	}
	if cred == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "error_description": "No credential stored for this key."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      cred,
		"expires_at": cred.ExpiresAt().Unix(),
		"stale":      cred.StaleAt(time.Now()),
	})
}

// Health reports liveness.
func (h *AuthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// renderFlowError maps the typed flow outcomes onto HTTP statuses.
func (h *AuthHandler) renderFlowError(c *gin.Context, err error) {
	var (
		exchErr *domain.ExchangeError
		refErr  *domain.RefreshError
		idErr   *domain.IdentityError
		cfgErr  *domain.ConfigurationError
	)

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Missing or invalid parameters."})
	case errors.Is(err, domain.ErrCredentialNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "error_description": "No credential stored for this key."})
	case errors.As(err, &exchErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "exchange_failed", "reason": exchErr.Reason, "error_description": exchErr.Detail})
	case errors.As(err, &refErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "refresh_failed", "reason": refErr.Reason, "error_description": refErr.Detail})
	case errors.As(err, &idErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "identity_failed", "error_description": idErr.Detail})
	case errors.As(err, &cfgErr):
		h.log().Error("flow aborted by configuration error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Deployment misconfigured."})
	default:
		h.log().Error("flow failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": err.Error()})
	}
}

func (h *AuthHandler) log() *zap.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return zap.L()
}
