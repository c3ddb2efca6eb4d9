package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ontostore/internal/ir"
)

func TestOwned(t *testing.T) {
	s, _ := newTestStore(t)
	effect := s.Create()
	chance := s.Create()
	partA := s.Create()
	partB := s.Create()
	target := s.Create()

	s.Update(effect, "Effect", "Chance", ir.Ref(chance))
	s.Insert(effect, "Effect", "Parts", ir.Ref(partB))
	s.Insert(effect, "Effect", "Parts", ir.Ref(partA))
	s.Insert(effect, "Effect", "Targets", ir.Ref(target))

	assert.Equal(t, []ir.ID{chance, partB, partA}, s.Owned(effect), "weak references are not owned")
	assert.Empty(t, s.Owned(chance))
}

func TestOwnedSkipsClearedRef(t *testing.T) {
	s, _ := newTestStore(t)
	effect := s.Create()

	s.Update(effect, "Effect", "Chance", ir.Ref(ir.NoID))
	assert.Empty(t, s.Owned(effect))
}

func TestReferrers(t *testing.T) {
	s, _ := newTestStore(t)
	e1 := s.Create()
	e2 := s.Create()
	target := s.Create()

	s.Insert(e2, "Effect", "Targets", ir.Ref(target))
	s.Insert(e1, "Effect", "Targets", ir.Ref(target))
	s.Update(e1, "Effect", "Chance", ir.Ref(target))

	assert.Equal(t, []RefSite{
		{Table: "Effect", Column: "Chance", Owner: e1},
		{Table: "Effect", Column: "Targets", Owner: e1},
		{Table: "Effect", Column: "Targets", Owner: e2},
	}, s.Referrers(target))

	assert.Nil(t, s.Referrers(ir.NoID))
}

func TestDomainCascadeLeavesNoDanglingLinks(t *testing.T) {
	s, _ := newTestStore(t)
	effect := s.Create()
	chance := s.Create()
	s.Update(effect, "Effect", "Chance", ir.Ref(chance))
	s.Update(chance, "Chance", "Probability", ir.Float(0.2))

	// Domain teardown: owned records first, then the owner.
	s.Coordinator().StartChange()
	for _, owned := range s.Owned(effect) {
		require.Equal(t, Success, s.RemoveRecord(owned))
	}
	require.Equal(t, Success, s.RemoveRecord(effect))
	s.Coordinator().StopChange()

	assert.False(t, s.Exists(chance))
	assert.Empty(t, s.Referrers(chance))
	assert.Equal(t, 0, s.Len())
}
