package generator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/yourorg/wandermate/pkg/types"
)

func TestBuildItineraryPromptListsAttractions(t *testing.T) {
	p := BuildItineraryPrompt("Paris", []string{"Louvre", "Eiffel Tower"}, 2)
	if !strings.Contains(p, "Create a 2-day travel itinerary for a trip to Paris.") {
		t.Fatalf("unexpected prompt head: %s", p)
	}
	if !strings.Contains(p, "The top attractions are: Louvre, Eiffel Tower.") {
		t.Fatalf("expected attraction list: %s", p)
	}
}

func TestBuildItineraryPromptNoAttractions(t *testing.T) {
	p := BuildItineraryPrompt("Goa", nil, 3)
	if !strings.Contains(p, "The top attractions are: None.") {
		t.Fatalf("expected None placeholder: %s", p)
	}
}

// The day enumeration only ever names Day 1 to Day 3; longer trips are
// left to "etc." rather than listing every day.
func TestBuildItineraryPromptDayEnumerationCap(t *testing.T) {
	cases := []struct {
		days     int
		withDay3 bool
	}{
		{1, false},
		{2, false},
		{3, true},
		{7, true},
	}
	for _, tc := range cases {
		p := BuildItineraryPrompt("Rome", nil, tc.days)
		if got := strings.Contains(p, "Day 2, Day 3, etc."); got != tc.withDay3 {
			t.Fatalf("days=%d: Day 3 listed=%v, want %v", tc.days, got, tc.withDay3)
		}
		if !tc.withDay3 && !strings.Contains(p, "Day 1, Day 2, etc.") {
			t.Fatalf("days=%d: expected Day 1, Day 2, etc.", tc.days)
		}
		if strings.Contains(p, "Day 4") {
			t.Fatalf("days=%d: prompt must not enumerate Day 4", tc.days)
		}
	}
}

func TestBuildChatPromptWindowAndDestination(t *testing.T) {
	history := make([]types.ChatTurn, 0, 10)
	for i := 1; i <= 10; i++ {
		history = append(history, types.ChatTurn{User: fmt.Sprintf("u%d", i), Bot: fmt.Sprintf("b%d", i)})
	}
	p := BuildChatPrompt("Tokyo", history, "what to eat?")
	if !strings.Contains(p, "The user is planning a trip to Tokyo.") {
		t.Fatalf("expected destination context")
	}
	if strings.Contains(p, "User: u4\n") {
		t.Fatalf("turn 4 is outside the replay window")
	}
	for i := 5; i <= 10; i++ {
		if !strings.Contains(p, fmt.Sprintf("User: u%d\nAssistant: b%d\n\n", i, i)) {
			t.Fatalf("expected turn %d replayed", i)
		}
	}
	if !strings.HasSuffix(p, "User: what to eat?\nAssistant:") {
		t.Fatalf("expected open assistant turn at end: %q", p[len(p)-40:])
	}
}

func TestBuildChatPromptWithoutDestination(t *testing.T) {
	p := BuildChatPrompt("", nil, "hello")
	if strings.Contains(p, "planning a trip to") {
		t.Fatalf("expected no destination sentence")
	}
	if !strings.HasPrefix(p, "You are WanderMate") {
		t.Fatalf("expected persona first")
	}
}
