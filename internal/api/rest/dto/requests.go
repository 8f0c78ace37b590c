package dto

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the body of POST /api/auth/login. Either email or username
// identifies the account.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

// Identifier returns the login identifier, preferring email
func (r LoginRequest) Identifier() string {
	if r.Email != "" {
		return r.Email
	}
	return r.Username
}

// UpdateProfileRequest is the body of PATCH /api/profile
type UpdateProfileRequest struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     *string `json:"newPassword"`
}

// GeneratePluginRequest is the body of POST /api/plugins/generate
type GeneratePluginRequest struct {
	Prompt      string `json:"prompt" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Model       string `json:"model"`
}

// ImprovePluginRequest is the body of POST /api/plugins/:id/improve
type ImprovePluginRequest struct {
	Instructions string `json:"instructions" binding:"required"`
	Model        string `json:"model"`
}

// FixPluginRequest is the body of POST /api/plugins/:id/fix
type FixPluginRequest struct {
	ErrorDescription string `json:"errorDescription" binding:"required"`
	Model            string `json:"model"`
}

// UpdatePluginRequest is the body of PATCH /api/plugins/:id
type UpdatePluginRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// CreateCheckoutRequest is the body of POST /api/payment/create-checkout
type CreateCheckoutRequest struct {
	PackageID int `json:"packageId" binding:"required"`
}

// ConfirmPaymentRequest is the body of POST /api/payment/confirm
type ConfirmPaymentRequest struct {
	Amount        int64  `json:"amount" binding:"required"`
	CheckoutToken string `json:"checkoutToken" binding:"required"`
}
