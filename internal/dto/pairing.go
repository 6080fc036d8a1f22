package dto

// QRPayload is what the browser encodes into the pairing QR code.
// ExpiresAt is unix milliseconds, matching what paired clients parse.
type QRPayload struct {
	ServerURL string `json:"server_url"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	SiteID    string `json:"site_id"`
	PairToken string `json:"pair_token"`
	ExpiresAt int64  `json:"expires_at"`
}

type QRResponse struct {
	Success bool      `json:"success"`
	Payload QRPayload `json:"payload"`
}

type ConfirmRequest struct {
	PairToken       string `json:"pairToken"`
	DeviceID        string `json:"deviceId"`
	DeviceName      string `json:"deviceName,omitempty"`
	DevicePublicKey string `json:"devicePublicKey"`
}

type ConfirmResponse struct {
	Success     bool   `json:"success"`
	EncryptedCT string `json:"encrypted_ct"`
	SiteSalt    string `json:"site_salt"`
	DisplayName string `json:"display_name"`
	LogoURL     string `json:"logo_url"`
	UserID      string `json:"user_id"`
	SiteID      string `json:"site_id"`
	Username    string `json:"username"`
}

type CompleteRequest struct {
	UserID   string `json:"userId"`
	DeviceID string `json:"deviceId"`
}

type CompleteResponse struct {
	Success bool `json:"success"`
	// RecoveryCodes is populated exactly once, on the confirm->paired
	// transition that first completes pairing for the user.
	RecoveryCodes []string `json:"recovery_codes,omitempty"`
}

type StatusResponse struct {
	Success      bool `json:"success"`
	IsPaired     bool `json:"isPaired"`
	HasBiometric bool `json:"hasBiometric"`
	HasCTWeb     bool `json:"hasCtWeb"`
}
