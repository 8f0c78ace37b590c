package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kodella-ai/kodella/internal/account"
	"github.com/kodella-ai/kodella/internal/api/middleware"
	"github.com/kodella-ai/kodella/internal/api/rest/dto"
	"github.com/kodella-ai/kodella/internal/domain"
	"github.com/kodella-ai/kodella/internal/ledger"
	"github.com/kodella-ai/kodella/internal/payment"
	"github.com/kodella-ai/kodella/internal/workflows"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// Register creates a new account
	// POST /api/auth/register
	Register(c *gin.Context)

	// Login authenticates by email or username
	// POST /api/auth/login
	Login(c *gin.Context)

	// GetProfile returns the signed-in user's profile
	// GET /api/profile
	GetProfile(c *gin.Context)

	// UpdateProfile changes profile fields
	// PATCH /api/profile
	UpdateProfile(c *gin.Context)

	// GetStats returns the signed-in user's dashboard statistics
	// GET /api/profile/stats
	GetStats(c *gin.Context)

	// GeneratePlugin creates a new plugin from a prompt
	// POST /api/plugins/generate
	GeneratePlugin(c *gin.Context)

	// ListPlugins returns the user's plugins without code
	// GET /api/plugins
	ListPlugins(c *gin.Context)

	// GetPlugin returns one plugin including its code
	// GET /api/plugins/:id
	GetPlugin(c *gin.Context)

	// GetPluginHistory returns a plugin's version history
	// GET /api/plugins/:id/history
	GetPluginHistory(c *gin.Context)

	// ImprovePlugin revises a plugin per user instructions
	// POST /api/plugins/:id/improve
	ImprovePlugin(c *gin.Context)

	// FixPlugin revises a plugin to address a reported error
	// POST /api/plugins/:id/fix
	FixPlugin(c *gin.Context)

	// DownloadPlugin returns the plugin code as a file attachment
	// GET /api/plugins/:id/download
	DownloadPlugin(c *gin.Context)

	// DeletePlugin removes a plugin and its history
	// DELETE /api/plugins/:id
	DeletePlugin(c *gin.Context)

	// UpdatePlugin changes a plugin's name and/or description
	// PATCH /api/plugins/:id
	UpdatePlugin(c *gin.Context)

	// GetPackages returns the token package catalog
	// GET /api/payment/packages
	GetPackages(c *gin.Context)

	// CreateCheckout builds a provider checkout session
	// POST /api/payment/create-checkout
	CreateCheckout(c *gin.Context)

	// HandleWebhook processes a signed payment provider webhook
	// POST /api/payment/webhook/tebex
	HandleWebhook(c *gin.Context)

	// ConfirmPayment credits a purchase from a checkout token
	// POST /api/payment/confirm
	ConfirmPayment(c *gin.Context)

	// GetBalance returns the user's token balance
	// GET /api/payment/balance
	GetBalance(c *gin.Context)

	// GetTransactions returns the user's token audit trail
	// GET /api/payment/transactions
	GetTransactions(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	accounts *account.Service
	plugins  *workflows.Service
	payments *payment.Service
	ledger   *ledger.Service
}

// NewHandler creates a new REST API handler
func NewHandler(accounts *account.Service, plugins *workflows.Service, payments *payment.Service, ldg *ledger.Service) Handler {
	return &handler{
		accounts: accounts,
		plugins:  plugins,
		payments: payments,
		ledger:   ldg,
	}
}

// userID returns the authenticated user ID, responding 401 when absent
func userID(c *gin.Context) (int64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		respondWithError(c, http.StatusUnauthorized, errCodeUnauthorized, "Authentication required")
	}
	return id, ok
}

// pluginID parses the :id path parameter
func pluginID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "Invalid plugin ID")
		return 0, false
	}
	return id, true
}

// Register creates a new account
func (h *handler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Username, email and password are required")
		return
	}

	session, err := h.accounts.Register(c.Request.Context(), account.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.SessionResponse{
		User:  dto.NewUserDTO(session.User),
		Token: session.Token,
	})
}

// Login authenticates by email or username
func (h *handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Email/username and password are required")
		return
	}

	session, err := h.accounts.Login(c.Request.Context(), req.Identifier(), req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			respondWithError(c, http.StatusUnauthorized, errCodeUnauthorized, "Invalid credentials")
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SessionResponse{
		User:  dto.NewUserDTO(session.User),
		Token: session.Token,
	})
}

// GetProfile returns the signed-in user's profile
func (h *handler) GetProfile(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	profile, err := h.accounts.GetProfile(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ProfileResponse{
		User: dto.ProfileUserDTO{
			UserDTO:         dto.NewUserDTO(profile.User),
			TotalPlugins:    profile.TotalPlugins,
			TotalTokensUsed: profile.TokensUsed,
		},
	})
}

// UpdateProfile changes profile fields
func (h *handler) UpdateProfile(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	user, err := h.accounts.UpdateProfile(c.Request.Context(), uid, account.UpdateProfileInput{
		Username:        req.Username,
		Email:           req.Email,
		NewPassword:     req.NewPassword,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    dto.NewUserDTO(user),
	})
}

// GetStats returns the signed-in user's dashboard statistics
func (h *handler) GetStats(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	stats, err := h.accounts.GetStats(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.StatsResponse{
		Stats: dto.StatsDTO{
			TotalPlugins:         stats.TotalPlugins,
			CompletedPlugins:     stats.CompletedPlugins,
			DraftPlugins:         stats.DraftPlugins,
			TotalTokensUsed:      stats.TokensUsed,
			TotalTokensPurchased: stats.TokensPurchased,
			RecentActivity:       dto.NewPluginSummaryDTOs(stats.RecentPlugins),
		},
	})
}

// GeneratePlugin creates a new plugin from a prompt
func (h *handler) GeneratePlugin(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req dto.GeneratePluginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Prompt and name are required")
		return
	}

	outcome, err := h.plugins.Generate(c.Request.Context(), uid, workflows.GenerateInput{
		Name:        req.Name,
		Description: req.Description,
		Prompt:      req.Prompt,
		Model:       req.Model,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GenerationResponse{
		Success:         true,
		Plugin:          dto.NewPluginDTO(outcome.Plugin),
		Version:         outcome.Version,
		TokensRemaining: outcome.TokensRemaining,
	})
}

// ListPlugins returns the user's plugins without code
func (h *handler) ListPlugins(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	plugins, err := h.plugins.List(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plugins": dto.NewPluginSummaryDTOs(plugins)})
}

// GetPlugin returns one plugin including its code
func (h *handler) GetPlugin(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	pid, ok := pluginID(c)
	if !ok {
		return
	}

	plugin, err := h.plugins.Get(c.Request.Context(), uid, pid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plugin": dto.NewPluginDTO(plugin)})
}

// GetPluginHistory returns a plugin's version history
func (h *handler) GetPluginHistory(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	pid, ok := pluginID(c)
	if !ok {
		return
	}

	versions, err := h.plugins.History(c.Request.Context(), uid, pid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": dto.NewPluginVersionDTOs(versions)})
}

// ImprovePlugin revises a plugin per user instructions
func (h *handler) ImprovePlugin(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	pid, ok := pluginID(c)
	if !ok {
		return
	}

	var req dto.ImprovePluginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Improvement instructions are required")
		return
	}

	outcome, err := h.plugins.Improve(c.Request.Context(), uid, pid, workflows.ImproveInput{
		Instructions: req.Instructions,
		Model:        req.Model,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GenerationResponse{
		Success:         true,
		Plugin:          dto.NewPluginDTO(outcome.Plugin),
		Version:         outcome.Version,
		TokensRemaining: outcome.TokensRemaining,
	})
}

// FixPlugin revises a plugin to address a reported error
func (h *handler) FixPlugin(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	pid, ok := pluginID(c)
	if !ok {
		return
	}

	var req dto.FixPluginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Error description is required")
		return
	}

	outcome, err := h.plugins.Fix(c.Request.Context(), uid, pid, workflows.FixInput{
		ErrorDescription: req.ErrorDescription,
		Model:            req.Model,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GenerationResponse{
		Success:         true,
		Plugin:          dto.NewPluginDTO(outcome.Plugin),
		Version:         outcome.Version,
		TokensRemaining: outcome.TokensRemaining,
	})
}

// DownloadPlugin returns the plugin code as a file attachment
func (h *handler) DownloadPlugin(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	pid, ok := pluginID(c)
	if !ok {
		return
	}

	download, err := h.plugins.Download(c.Request.Context(), uid, pid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Data(http.StatusOK, "application/javascript", []byte(download.Code))
}

// DeletePlugin removes a plugin and its history
func (h *handler) DeletePlugin(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	pid, ok := pluginID(c)
	if !ok {
		return
	}

	if err := h.plugins.Delete(c.Request.Context(), uid, pid); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Plugin deleted successfully",
	})
}

// UpdatePlugin changes a plugin's name and/or description
func (h *handler) UpdatePlugin(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	pid, ok := pluginID(c)
	if !ok {
		return
	}

	var req dto.UpdatePluginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	plugin, err := h.plugins.UpdateMetadata(c.Request.Context(), uid, pid, workflows.MetadataUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"plugin":  dto.NewPluginDTO(plugin),
	})
}

// GetPackages returns the token package catalog
func (h *handler) GetPackages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packages": payment.Packages()})
}

// CreateCheckout builds a provider checkout session
func (h *handler) CreateCheckout(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req dto.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Package ID is required")
		return
	}

	checkout, err := h.payments.CreateCheckout(c.Request.Context(), uid, req.PackageID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"checkoutUrl":   checkout.CheckoutURL,
		"checkoutToken": checkout.CheckoutToken,
		"packageInfo":   checkout.Package,
	})
}

// HandleWebhook processes a signed payment provider webhook. Replayed events
// acknowledge without a second credit.
func (h *handler) HandleWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondBadRequest(c, "Failed to read request body")
		return
	}

	err = h.payments.HandleWebhook(c.Request.Context(), body, c.GetHeader("X-Signature"))
	if err != nil && !errors.Is(err, domain.ErrDuplicatePayment) {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// ConfirmPayment credits a purchase from a checkout token
func (h *handler) ConfirmPayment(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Amount and checkout token are required")
		return
	}

	newBalance, err := h.payments.ConfirmManual(c.Request.Context(), uid, req.Amount, req.CheckoutToken)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicatePayment) {
			respondWithError(c, http.StatusConflict, errCodeConflict, "Payment already processed")
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    fmt.Sprintf("%d tokens added successfully", req.Amount),
		"newBalance": newBalance,
	})
}

// GetBalance returns the user's token balance
func (h *handler) GetBalance(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	balance, err := h.ledger.Balance(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": balance})
}

// GetTransactions returns the user's token audit trail, newest first
func (h *handler) GetTransactions(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	transactions, err := h.ledger.Transactions(c.Request.Context(), uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": dto.NewTransactionDTOs(transactions)})
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "kodella.ai",
	})
}
