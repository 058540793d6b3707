package dto

// BotAnalyzeRequestDTO asks a bot to score a piece of content.
type BotAnalyzeRequestDTO struct {
	Bot     string `json:"bot" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// BotAnalyzeResponseDTO is the bot's verdict.
type BotAnalyzeResponseDTO struct {
	Bot         string   `json:"bot"`
	Score       int      `json:"score"`
	Suggestions []string `json:"suggestions"`
}

// QuotaExceededDTO is returned when a usage gate refuses an operation.
type QuotaExceededDTO struct {
	Error           string `json:"error"`
	Current         int64  `json:"current"`
	Limit           int64  `json:"limit"`
	UpgradeRequired bool   `json:"upgradeRequired"`
}
