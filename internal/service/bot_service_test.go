package service

import (
	"strings"
	"testing"
)

func TestAnalyzeUnknownBot(t *testing.T) {
	svc := NewBotService()
	if _, err := svc.Analyze("tax-wizard", "content"); err == nil {
		t.Fatal("expected error for unknown bot")
	}
	if svc.KnownBot("tax-wizard") {
		t.Fatal("tax-wizard should not be a known bot")
	}
}

func TestAnalyzeScoresInRange(t *testing.T) {
	svc := NewBotService()
	contents := []string{
		"",
		"short",
		"A reasonably long post about travel photography with a question? " + strings.Repeat("word ", 50),
		"#go #golang #dev #code #build #ship #extra #more #tags #spam",
	}
	for _, bot := range []string{BotSEO, BotReadability, BotHashtags} {
		for _, content := range contents {
			res, err := svc.Analyze(bot, content)
			if err != nil {
				t.Fatalf("Analyze(%s) returned error: %v", bot, err)
			}
			if res.Score < 0 || res.Score > 100 {
				t.Fatalf("Analyze(%s) score out of range: %d", bot, res.Score)
			}
		}
	}
}

func TestHashtagHeuristics(t *testing.T) {
	svc := NewBotService()

	res, _ := svc.Analyze(BotHashtags, "no tags here")
	if len(res.Suggestions) == 0 {
		t.Fatal("missing hashtags should produce a suggestion")
	}

	good, _ := svc.Analyze(BotHashtags, "launch day! #golang #backend #api")
	spammy, _ := svc.Analyze(BotHashtags, "#a #b #c #d #e #f #g #h #i #j")
	if good.Score <= spammy.Score {
		t.Fatalf("moderate tagging (%d) should outscore spam tagging (%d)", good.Score, spammy.Score)
	}
}
