package chat

// EnsureSystemPrompt prepends prompt as a system message unless one of the
// messages already has the system role. The input slice is never modified.
func EnsureSystemPrompt(messages []Message, prompt string) []Message {
	if prompt == "" {
		return messages
	}
	for _, m := range messages {
		if m.Role == RoleSystem {
			return messages
		}
	}

	out := make([]Message, 0, len(messages)+1)
	out = append(out, Message{Role: RoleSystem, Content: prompt})
	return append(out, messages...)
}
