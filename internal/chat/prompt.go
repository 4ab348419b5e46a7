package chat

import (
	"fmt"
	"strings"

	"github.com/ragvault/ragvault/internal/session"
)

// systemInstructions frame every generation request.
const systemInstructions = `You are a helpful assistant answering questions using the provided context.
Ground your answer in the context passages below. If the context does not
contain the answer, say so rather than inventing one.`

// condensePrompt folds the conversation history and the new message into
// a single standalone retrieval query, resolving references such as
// pronouns to prior topics.
func condensePrompt(history []session.Turn, message string) string {
	var b strings.Builder
	b.WriteString("Given the following conversation and a follow-up message, rephrase the ")
	b.WriteString("follow-up into a single standalone question that carries all needed context.\n\n")
	b.WriteString("Conversation:\n")
	for _, turn := range history {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	fmt.Fprintf(&b, "\nFollow-up message: %s\n\nStandalone question:", message)
	return b.String()
}

// answerPrompt assembles the generation request: system instructions,
// retrieved chunks as numbered context, prior turns, and the new user
// message.
func answerPrompt(chunks []Chunk, history []session.Turn, message string) string {
	var b strings.Builder
	b.WriteString(systemInstructions)
	b.WriteString("\n\nContext:\n")
	if len(chunks) == 0 {
		b.WriteString("(no relevant passages found)\n")
	}
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, chunk.Content)
	}
	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
		}
	}
	fmt.Fprintf(&b, "\nuser: %s\nassistant:", message)
	return b.String()
}
