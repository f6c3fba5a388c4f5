package chat

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liamcoop/titanic-whatif/cohorts"
	"github.com/liamcoop/titanic-whatif/internal/logger"
	"github.com/liamcoop/titanic-whatif/passenger"
	"github.com/liamcoop/titanic-whatif/query"
)

var (
	ErrUnknownPreset = errors.New("unknown preset")
	ErrEmptyMessage  = errors.New("message must not be empty")
)

// Matcher resolves a profile to its cohort
type Matcher interface {
	Match(p passenger.Profile) cohorts.Match
}

// DefaultProfile is the what-if state of a new session (female, 2nd class, 30, £15)
var DefaultProfile = passenger.Profile{Sex: passenger.Female, Pclass: passenger.SecondClass, Age: 30, Fare: 15.0}

// Session is one user's what-if conversation.
// All state changes are synchronous: update the profile, then render the reply.
type Session struct {
	ID        string
	CreatedAt time.Time

	matcher Matcher

	mu         sync.RWMutex
	transcript Transcript
	profile    passenger.Profile
	preset     string
	view       View
}

// Reply is the outcome of one chat turn
type Reply struct {
	Parsed  bool              `json:"parsed"`
	Text    string            `json:"text"`
	Cohort  string            `json:"cohort,omitempty"`
	Profile passenger.Profile `json:"profile"`
}

// State is a point-in-time copy of a session
type State struct {
	ID         string            `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	Profile    passenger.Profile `json:"profile"`
	Preset     string            `json:"current_preset,omitempty"`
	View       View              `json:"view"`
	Transcript []Entry           `json:"transcript"`
}

// NewSession starts a session on the tree view with the default profile and a welcome message
func NewSession(matcher Matcher) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		matcher:   matcher,
		profile:   DefaultProfile,
		view:      ViewTree,
	}
	s.transcript.Append(Entry{Role: RoleAssistant, Text: WelcomeMessage})
	return s
}

// Ask handles a free-text message. Unparsable text is not an error: the reply
// carries the guidance message and the what-if state is left untouched.
func (s *Session) Ask(text string) (Reply, error) {
	if err := ValidateMessage(text); err != nil {
		return Reply{}, err
	}

	p, ok := query.Parse(text)
	if !ok {
		logger.CountUnparsable()
		s.mu.Lock()
		defer s.mu.Unlock()
		s.transcript.Exchange(text, GuidanceMessage)
		return Reply{Parsed: false, Text: GuidanceMessage, Profile: s.profile}, nil
	}

	return s.respond(p, text), nil
}

// ApplyPreset moves the session to a preset scenario; the preset label stands in for the user message
func (s *Session) ApplyPreset(key string) (Reply, error) {
	preset, ok := passenger.LookupPreset(key)
	if !ok {
		return Reply{}, fmt.Errorf("%w: %q", ErrUnknownPreset, key)
	}
	return s.respond(preset.Profile, preset.Label), nil
}

func (s *Session) respond(p passenger.Profile, userMessage string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.matcher.Match(p)
	text := Render(p, m, s.view)

	s.transcript.Exchange(userMessage, text)
	s.profile = p
	s.preset = m.Name()

	if m.Fallback {
		logger.CountFallbackReply()
	}
	logger.Debug("chat reply", "session", s.ID, "cohort", m.Name(), "fallback", m.Fallback)

	return Reply{Parsed: true, Text: text, Cohort: m.Name(), Profile: p}
}

// SetProfile replaces the what-if profile without adding to the transcript
func (s *Session) SetProfile(p passenger.Profile) error {
	if err := passenger.Validate(p); err != nil {
		return err
	}
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	return nil
}

// SetClass changes the ticket class and resets the fare to that class's average
func (s *Session) SetClass(c passenger.Class) error {
	fare, ok := passenger.ClassFare(c)
	if !ok {
		return &passenger.ValidationError{Field: passenger.FeaturePclass, Message: "pclass must be 1, 2, or 3"}
	}
	s.mu.Lock()
	s.profile.Pclass = c
	s.profile.Fare = fare
	s.mu.Unlock()
	return nil
}

// SetView switches the narrative used for later replies
func (s *Session) SetView(v View) error {
	if _, err := ParseView(string(v)); err != nil {
		return err
	}
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	return nil
}

// Profile returns the current what-if profile
func (s *Session) Profile() passenger.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Snapshot copies the session state
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		Profile:    s.profile,
		Preset:     s.preset,
		View:       s.view,
		Transcript: s.transcript.Entries(),
	}
}
