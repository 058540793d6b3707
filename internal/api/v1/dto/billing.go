package dto

// CheckoutRequestDTO starts a subscription checkout for a tier.
type CheckoutRequestDTO struct {
	Tier string `json:"tier" validate:"required"`
}

// CheckoutResponseDTO carries the hosted checkout or portal URL.
type CheckoutResponseDTO struct {
	URL string `json:"url"`
}
