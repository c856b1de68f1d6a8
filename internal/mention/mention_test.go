package mention

import (
	"testing"

	"github.com/aethernet/internal/chat"
)

func roster() []chat.Participant {
	return []chat.Participant{
		{ID: "gemini-flash", DisplayName: "Gemini", Provider: chat.ProviderGoogle},
		{ID: "mistral-medium", DisplayName: "Mistral", Provider: chat.ProviderMistral},
		{ID: "command-r-plus", DisplayName: "Command R+", Provider: chat.ProviderCohere},
	}
}

func ids(targets []chat.Participant) []string {
	out := make([]string, len(targets))
	for i, p := range targets {
		out[i] = p.ID
	}
	return out
}

func TestNoMentionBroadcasts(t *testing.T) {
	targets := Resolve("summarize this for me", roster())
	if len(targets) != 3 {
		t.Fatalf("Expected broadcast to all 3 participants, got %d", len(targets))
	}
}

func TestSingleMention(t *testing.T) {
	targets := Resolve("@Mistral summarize this", roster())
	if len(targets) != 1 {
		t.Fatalf("Expected 1 target, got %d: %v", len(targets), ids(targets))
	}
	if targets[0].ID != "mistral-medium" {
		t.Errorf("Expected mistral-medium, got %s", targets[0].ID)
	}
}

func TestMentionIsCaseInsensitive(t *testing.T) {
	targets := Resolve("hey @gemini what do you think", roster())
	if len(targets) != 1 || targets[0].ID != "gemini-flash" {
		t.Fatalf("Expected gemini-flash, got %v", ids(targets))
	}
}

func TestMultipleMentionsInRosterOrder(t *testing.T) {
	targets := Resolve("@Mistral and @Gemini, compare answers", roster())
	got := ids(targets)
	if len(got) != 2 || got[0] != "gemini-flash" || got[1] != "mistral-medium" {
		t.Fatalf("Expected roster-ordered [gemini-flash mistral-medium], got %v", got)
	}
}

func TestDuplicateMentionsCollapse(t *testing.T) {
	targets := Resolve("@Gemini please, really @Gemini", roster())
	if len(targets) != 1 {
		t.Fatalf("Duplicate mention produced %d targets", len(targets))
	}
}

func TestUnknownMentionBroadcasts(t *testing.T) {
	targets := Resolve("@Claude what about you", roster())
	if len(targets) != 3 {
		t.Fatalf("Unmatched mention should broadcast, got %d targets", len(targets))
	}
}

func TestPrefixDoesNotMatch(t *testing.T) {
	// "@Gem" must not target Gemini.
	targets := Resolve("@Gem hello", roster())
	if len(targets) != 3 {
		t.Fatalf("Prefix mention should not match; expected broadcast, got %v", ids(targets))
	}
}

func TestLongerNameDoesNotMatchShorterParticipant(t *testing.T) {
	// "@GeminiPro" must not silently target Gemini.
	targets := Resolve("@GeminiPro hello", roster())
	if len(targets) != 3 {
		t.Fatalf("Expected broadcast for unknown @GeminiPro, got %v", ids(targets))
	}
}

func TestNameEndingInSymbol(t *testing.T) {
	targets := Resolve("@Command R+ what do you think?", roster())
	if len(targets) != 1 || targets[0].ID != "command-r-plus" {
		t.Fatalf("Expected command-r-plus, got %v", ids(targets))
	}
}

func TestMentionAtEndOfText(t *testing.T) {
	targets := Resolve("your turn @Mistral", roster())
	if len(targets) != 1 || targets[0].ID != "mistral-medium" {
		t.Fatalf("Expected mistral-medium, got %v", ids(targets))
	}
}

func TestMentionFollowedByPunctuation(t *testing.T) {
	targets := Resolve("@Gemini, are you there?", roster())
	if len(targets) != 1 || targets[0].ID != "gemini-flash" {
		t.Fatalf("Expected gemini-flash, got %v", ids(targets))
	}
}
