package testutil

// FixedSessionGenerator returns the same session id every time.
//
// The same scenario journaled with a FixedSessionGenerator produces
// byte-identical journal rows, which enables golden snapshot comparison.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a fixed session id generator.
// If id is empty, Generate returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session id.
// Implements journal.SessionGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
