package session

// Turn is one role-tagged conversational turn in the representation the
// generation layer consumes.
type Turn struct {
	Role    string
	Content string
}

// FormatForGeneration maps persisted messages to generation turns.
// Pure, stateless transform; order is preserved.
func FormatForGeneration(messages []Message) []Turn {
	turns := make([]Turn, 0, len(messages))
	for _, msg := range messages {
		turns = append(turns, Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns
}
