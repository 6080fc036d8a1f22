package dto

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

type RegisterResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Username string `json:"username,omitempty"`
}

type EnrollRequest struct {
	Username           string `json:"username"`
	ANSITemplateBase64 string `json:"ansiTemplateBase64"`
}

type EnrollResponse struct {
	Success  bool   `json:"success"`
	Next     string `json:"next"`
	Username string `json:"username"`
}
