package dto

type LoginRequest struct {
	Username    string `json:"username"`
	DynamicCode string `json:"dynamicCode"`
}

type RecoveryLoginRequest struct {
	Username     string `json:"username"`
	RecoveryCode string `json:"recoveryCode"`
}

type LoginResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}
