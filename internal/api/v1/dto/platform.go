package dto

// PlatformTokenRequestDTO stores an OAuth token for a social platform.
type PlatformTokenRequestDTO struct {
	Platform string `json:"platform" validate:"required"`
	Token    string `json:"token" validate:"required"`
}

// PlatformTokenResponseDTO acknowledges a stored token without echoing it.
type PlatformTokenResponseDTO struct {
	Platform string `json:"platform"`
	Stored   bool   `json:"stored"`
}
