package journal

import (
	"path/filepath"
	"testing"

	"github.com/roach88/ontostore/internal/testutil"
)

// createTestJournal opens a journal in a temp dir with a fixed clock and
// session ids "session-1", "session-2", ...
func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path,
		WithClock(testutil.NewFixedClock()),
		WithSessionGenerator(&sequenceGenerator{prefix: "session-"}),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

type sequenceGenerator struct {
	prefix string
	n      int
}

func (g *sequenceGenerator) Generate() string {
	g.n++
	return g.prefix + string(rune('0'+g.n))
}
