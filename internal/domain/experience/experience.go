// Package experience defines the core domain entities for the velada session.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package experience

// Step represents a top-level stage of the experience.
type Step string

const (
	StepHome     Step = "HOME"     // Locked landing screen until the countdown expires
	StepStart    Step = "START"    // Introduction screen
	StepName     Step = "NAME"     // Guest enters a display name
	StepCarousel Step = "CAROUSEL" // Card solving loop
	StepLight1   Step = "LIGHT_1"  // Finale: first light
	StepLight2   Step = "LIGHT_2"  // Finale: second light
	StepLight3   Step = "LIGHT_3"  // Finale: gated on the final answer
	StepLight4   Step = "LIGHT_4"  // Finale: last light
	StepEnd      Step = "END"      // Terminal
)

// Phase is a sub-state of a card's open/close animation, nested within CAROUSEL.
type Phase string

const (
	PhaseClosed     Phase = "CLOSED"
	PhaseExpanding  Phase = "EXPANDING"
	PhaseFlipped    Phase = "FLIPPED"
	PhaseCollapsing Phase = "COLLAPSING"
)

// edges is the full transition relation. CAROUSEL loops on itself for card
// cycles and pagination; END has no outgoing edges.
var edges = map[Step][]Step{
	StepHome:     {StepStart},
	StepStart:    {StepName},
	StepName:     {StepCarousel},
	StepCarousel: {StepCarousel, StepLight1},
	StepLight1:   {StepLight2},
	StepLight2:   {StepLight3},
	StepLight3:   {StepLight4},
	StepLight4:   {StepEnd},
}

// CanTransition reports whether from -> to is a permitted edge.
func CanTransition(from, to Step) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CardDefinition is an immutable card loaded once as static configuration.
type CardDefinition struct {
	ID           int    `json:"id"`
	AnswerDigest string `json:"answer_digest"` // hex-encoded, never plaintext
	Asset        string `json:"asset"`         // logical asset name for the face art
}

// Profile holds the guest's session state. Created at the NAME commit,
// mutated only through the engine machines, never destroyed within a session.
type Profile struct {
	DisplayName string
	FinalSolved bool

	solved      map[int]bool
	solvedOrder []int // insertion order kept for the UI
}

// NewProfile creates an empty profile.
func NewProfile() *Profile {
	return &Profile{
		solved: make(map[int]bool),
	}
}

// MarkSolved records a solved card. Returns false when the id was already
// present; the solved set never shrinks.
func (p *Profile) MarkSolved(cardID int) bool {
	if p.solved[cardID] {
		return false
	}
	p.solved[cardID] = true
	p.solvedOrder = append(p.solvedOrder, cardID)
	return true
}

// HasSolved reports membership in the solved set.
func (p *Profile) HasSolved(cardID int) bool {
	return p.solved[cardID]
}

// SolvedCount returns the number of distinct solved cards.
func (p *Profile) SolvedCount() int {
	return len(p.solved)
}

// SolvedIDs returns the solved card ids in the order they were solved.
func (p *Profile) SolvedIDs() []int {
	out := make([]int, len(p.solvedOrder))
	copy(out, p.solvedOrder)
	return out
}
