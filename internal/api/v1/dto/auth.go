package dto

// SignupRequestDTO is the payload for trial signups.
type SignupRequestDTO struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Name      string `json:"name" validate:"required"`
	TrialPlan string `json:"trial_plan" validate:"required"`
}

type LoginRequestDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequestDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponseDTO carries a freshly minted token pair.
type TokenResponseDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponseDTO is returned from signup and login.
type AuthResponseDTO struct {
	User   UserResponseDTO  `json:"user"`
	Tokens TokenResponseDTO `json:"tokens"`
}

// SignupRejectedDTO explains why a signup was refused.
type SignupRejectedDTO struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}
