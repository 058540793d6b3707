package service

import (
	"errors"
	"regexp"
	"strings"
)

var ErrUnknownBot = errors.New("unknown bot")

// BotResult is a heuristic analysis of a piece of content.
type BotResult struct {
	Bot         string   `json:"bot"`
	Score       int      `json:"score"`
	Suggestions []string `json:"suggestions"`
}

// Bot names.
const (
	BotSEO         = "seo"
	BotReadability = "readability"
	BotHashtags    = "hashtags"
)

// BotService runs the heuristic content scorers. Scorers are deliberately
// simple keyword/shape heuristics, not model calls.
type BotService interface {
	Analyze(bot, content string) (BotResult, error)
	KnownBot(bot string) bool
}

type botService struct{}

// NewBotService creates a new BotService.
func NewBotService() BotService {
	return &botService{}
}

func (s *botService) KnownBot(bot string) bool {
	switch bot {
	case BotSEO, BotReadability, BotHashtags:
		return true
	}
	return false
}

func (s *botService) Analyze(bot, content string) (BotResult, error) {
	switch bot {
	case BotSEO:
		return analyzeSEO(content), nil
	case BotReadability:
		return analyzeReadability(content), nil
	case BotHashtags:
		return analyzeHashtags(content), nil
	}
	return BotResult{}, ErrUnknownBot
}

var hashtagPattern = regexp.MustCompile(`#\w+`)

func analyzeSEO(content string) BotResult {
	score := 50
	var suggestions []string

	words := strings.Fields(content)
	switch {
	case len(words) < 10:
		score -= 20
		suggestions = append(suggestions, "Add more descriptive text; very short posts rank poorly in search and discovery.")
	case len(words) > 40:
		score += 20
	default:
		score += 10
	}

	if strings.Contains(content, "http://") || strings.Contains(content, "https://") {
		score += 10
	} else {
		suggestions = append(suggestions, "Consider linking to your profile or site to capture traffic.")
	}

	if strings.Contains(content, "?") {
		score += 10
		suggestions = append(suggestions, "Questions drive comments; pin a reply to keep the thread active.")
	}

	return BotResult{Bot: BotSEO, Score: clampScore(score), Suggestions: suggestions}
}

func analyzeReadability(content string) BotResult {
	score := 70
	var suggestions []string

	sentences := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	words := strings.Fields(content)
	if len(sentences) > 0 {
		avg := len(words) / len(sentences)
		if avg > 25 {
			score -= 25
			suggestions = append(suggestions, "Sentences average over 25 words; break them up for skimmability.")
		} else if avg <= 15 {
			score += 15
		}
	}

	if strings.Contains(content, "\n\n") || len(words) < 60 {
		score += 10
	} else {
		suggestions = append(suggestions, "Add paragraph breaks; walls of text lose readers on mobile.")
	}

	return BotResult{Bot: BotReadability, Score: clampScore(score), Suggestions: suggestions}
}

func analyzeHashtags(content string) BotResult {
	tags := hashtagPattern.FindAllString(content, -1)
	score := 40
	var suggestions []string

	switch {
	case len(tags) == 0:
		suggestions = append(suggestions, "No hashtags found; add 3-5 relevant tags to widen reach.")
	case len(tags) <= 5:
		score += 40
	default:
		score += 10
		suggestions = append(suggestions, "More than 5 hashtags reads as spam on most platforms; trim to the strongest ones.")
	}

	seen := map[string]bool{}
	for _, tag := range tags {
		lower := strings.ToLower(tag)
		if seen[lower] {
			score -= 10
			suggestions = append(suggestions, "Duplicate hashtags detected; each tag only counts once.")
			break
		}
		seen[lower] = true
	}

	return BotResult{Bot: BotHashtags, Score: clampScore(score), Suggestions: suggestions}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
