package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ledgersync/internal/logger"
	"ledgersync/internal/services/xero"
)

// XeroHandler drives the authorization flow and exposes the connection state.
type XeroHandler struct {
	credentials  *xero.CredentialStore
	oauthService *xero.OAuthService
	logger       *logger.Logger
	now          func() time.Time
}

func NewXeroHandler(credentials *xero.CredentialStore, oauthService *xero.OAuthService, logger *logger.Logger) *XeroHandler {
	return &XeroHandler{
		credentials:  credentials,
		oauthService: oauthService,
		logger:       logger,
		now:          time.Now,
	}
}

// Connect initiates the OAuth flow
func (h *XeroHandler) Connect(c *gin.Context) {
	ctx := c.Request.Context()
	creds, err := h.credentials.Load(ctx)
	if err != nil {
		h.logger.Error("Failed to load credentials: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load credentials"})
		return
	}
	if !creds.HasClientConfig() {
		c.JSON(http.StatusBadRequest, gin.H{"error": xero.ErrMissingClientConfig.Error()})
		return
	}

	authURL, state, err := h.oauthService.GenerateAuthURL(creds.ClientID)
	if err != nil {
		h.logger.Error("Failed to generate auth URL: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authorization URL"})
		return
	}
	if err := h.credentials.SaveState(ctx, state); err != nil {
		h.logger.Error("Failed to save OAuth state: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save authorization state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"auth_url": authURL,
		"state":    state,
		"message":  "Redirect user to the auth_url to complete OAuth flow",
	})
}

// Callback handles the OAuth callback
func (h *XeroHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	code := c.Query("code")
	state := c.Query("state")

	if errMsg := c.Query("error"); errMsg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization denied: " + errMsg})
		return
	}
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters"})
		return
	}

	expected, err := h.credentials.State(ctx)
	if err != nil || expected == "" || expected != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state parameter"})
		return
	}

	creds, err := h.credentials.Load(ctx)
	if err != nil {
		h.logger.Error("Failed to load credentials: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load credentials"})
		return
	}

	tokenResp, err := h.oauthService.ExchangeCodeForToken(ctx, creds.ClientID, creds.ClientSecret, code)
	if err != nil {
		h.logger.Error("Failed to exchange code for token: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to exchange authorization code"})
		return
	}

	connections, err := h.oauthService.Connections(ctx, tokenResp.AccessToken)
	if err != nil {
		h.logger.Error("Failed to list Xero connections: %v", err)
		c.JSON(statusFor(err), gin.H{"error": "Failed to list connected organisations"})
		return
	}
	if len(connections) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No organisation was connected"})
		return
	}
	tenant := connections[0]

	expiresAt := h.now().Unix() + tokenResp.ExpiresIn
	if err := h.credentials.SaveTokens(ctx, tokenResp.AccessToken, tokenResp.RefreshToken, expiresAt); err != nil {
		h.logger.Error("Failed to save tokens: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save tokens"})
		return
	}
	if err := h.credentials.SaveTenant(ctx, tenant.TenantID); err != nil {
		h.logger.Error("Failed to save tenant: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save tenant"})
		return
	}
	if err := h.credentials.SaveState(ctx, ""); err != nil {
		h.logger.Warn("Failed to clear OAuth state: %v", err)
	}

	h.logger.Info("Connected Xero organisation %s (%s)", tenant.TenantName, tenant.TenantID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Xero connected successfully",
		"data": gin.H{
			"tenant_id":   tenant.TenantID,
			"tenant_name": tenant.TenantName,
			"expires_at":  expiresAt,
		},
	})
}

// Status reports whether a session is stored. It never calls Xero.
func (h *XeroHandler) Status(c *gin.Context) {
	creds, err := h.credentials.Load(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load credentials: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"connected":         creds.HasSession(),
			"has_client_config": creds.HasClientConfig(),
			"tenant_id":         creds.TenantID,
			"expires_at":        creds.ExpiresAt,
			"expired":           creds.Expired(h.now().Unix()),
		},
	})
}

// UpdateSettings stores the app client id and secret.
func (h *XeroHandler) UpdateSettings(c *gin.Context) {
	var request struct {
		ClientID     string `json:"client_id" binding:"required"`
		ClientSecret string `json:"client_secret" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.credentials.SaveClientConfig(c.Request.Context(), request.ClientID, request.ClientSecret); err != nil {
		h.logger.Error("Failed to save client config: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Settings saved"})
}
