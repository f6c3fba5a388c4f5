package chat

// Role identifies who wrote a transcript entry
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one chat message
type Entry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Transcript is an append-only list of chat entries.
// It is not safe for concurrent use; Session guards it.
type Transcript struct {
	entries []Entry
}

// Append adds entries in order
func (t *Transcript) Append(entries ...Entry) {
	t.entries = append(t.entries, entries...)
}

// Exchange appends a user message followed by the assistant's reply
func (t *Transcript) Exchange(user, assistant string) {
	t.Append(Entry{Role: RoleUser, Text: user}, Entry{Role: RoleAssistant, Text: assistant})
}

// Entries returns a copy of the transcript
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Transcript) Len() int {
	return len(t.entries)
}
