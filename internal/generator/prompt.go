package generator

import (
	"fmt"
	"strings"

	"github.com/yourorg/wandermate/pkg/types"
)

// ChatHistoryWindow is how many stored turns are replayed to the model.
const ChatHistoryWindow = 6

const assistantPersona = "You are WanderMate, a friendly and knowledgeable travel assistant. "

const assistantGuidance = "Provide helpful, specific travel advice and recommendations. " +
	"Keep responses concise (2-3 paragraphs max) and friendly. " +
	"If asked about specific places, provide practical tips like best time to visit, must-see spots, local food, etc.\n\n"

// BuildItineraryPrompt asks for a day-by-day plan. "Day 3, " is only
// listed when the trip has at least three days; longer trips rely on "etc.".
func BuildItineraryPrompt(destination string, attractions []string, numDays int) string {
	list := "None"
	if len(attractions) > 0 {
		list = strings.Join(attractions, ", ")
	}
	day3 := ""
	if numDays >= 3 {
		day3 = "Day 3, "
	}
	return fmt.Sprintf("Create a %d-day travel itinerary for a trip to %s. "+
		"The top attractions are: %s. "+
		"Organize by Day 1, Day 2, %setc., with morning, afternoon, and evening plans for each day. "+
		"Keep the tone friendly and concise.", numDays, destination, list, day3)
}

// BuildChatPrompt renders the preamble, the tail of history and the new
// message as one dialogue transcript ending with an open assistant turn.
func BuildChatPrompt(destination string, history []types.ChatTurn, message string) string {
	b := &strings.Builder{}
	b.WriteString(assistantPersona)
	if destination != "" {
		fmt.Fprintf(b, "The user is planning a trip to %s. ", destination)
	}
	b.WriteString(assistantGuidance)

	if len(history) > ChatHistoryWindow {
		history = history[len(history)-ChatHistoryWindow:]
	}
	for _, turn := range history {
		fmt.Fprintf(b, "User: %s\nAssistant: %s\n\n", turn.User, turn.Bot)
	}
	fmt.Fprintf(b, "User: %s\nAssistant:", message)
	return b.String()
}
