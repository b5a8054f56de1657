package graph

import (
	"errors"
	"testing"

	"github.com/chazu/linkage/pkg/assembly"
	"github.com/chazu/linkage/pkg/assembly/asmtest"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func mustIndex(t *testing.T, b *asmtest.Builder) *Index {
	t.Helper()
	idx, err := NewIndex(b.Document())
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return idx
}

// armWithHand is a base, an arm and a hand sub-assembly with two fingers.
func armWithHand() *asmtest.Builder {
	return asmtest.New().
		Part("A", "Base <1>").
		PartAt("B", "Arm <1>", asmtest.Translate(0, 0, 0.5)).
		Sub("H", "Hand <1>", asmtest.Translate(0, 0, 1),
			asmtest.NestedPart("F1", "Finger <1>"),
			asmtest.NestedPart("F2", "Finger <2>"))
}

// ---------------------------------------------------------------------------
// Index
// ---------------------------------------------------------------------------

func TestNewIndexResolvesNestedInstances(t *testing.T) {
	idx := mustIndex(t, armWithHand())

	occ, ok := idx.Lookup([]string{"H", "F2"})
	if !ok {
		t.Fatal("Lookup(H/F2) missed")
	}
	if occ.Instance.Name != "Finger <2>" {
		t.Errorf("instance name = %q, want %q", occ.Instance.Name, "Finger <2>")
	}
	if occ.Root() != "H" || occ.ID() != "F2" || occ.TopLevel() {
		t.Errorf("root/id/toplevel = %s/%s/%v", occ.Root(), occ.ID(), occ.TopLevel())
	}
	if got := occ.Transform.Origin().Z; got != 1 {
		t.Errorf("transform z = %f, want 1", got)
	}
	if len(idx.Occurrences()) != 5 {
		t.Errorf("occurrence count = %d, want 5", len(idx.Occurrences()))
	}
}

func TestNewIndexMissingInstance(t *testing.T) {
	doc := armWithHand().Document()
	doc.RootAssembly.Occurrences = append(doc.RootAssembly.Occurrences, assembly.Occurrence{
		Path:      []string{"H", "ghost"},
		Transform: asmtest.Identity(),
	})
	_, err := NewIndex(doc)
	if !errors.Is(err, ErrInstanceNotFound) {
		t.Fatalf("err = %v, want ErrInstanceNotFound", err)
	}
}

func TestNewIndexBadTransform(t *testing.T) {
	doc := asmtest.New().Part("A", "Base <1>").Document()
	doc.RootAssembly.Occurrences[0].Transform = []float64{1, 2, 3}
	if _, err := NewIndex(doc); err == nil {
		t.Fatal("expected error for short transform")
	}
}

func TestByIDAmbiguity(t *testing.T) {
	b := asmtest.New().
		Sub("L", "Left leg <1>", asmtest.Identity(), asmtest.NestedPart("P", "Foot <1>")).
		Sub("R", "Right leg <1>", asmtest.Identity(), asmtest.NestedPart("P", "Foot <1>"))
	idx := mustIndex(t, b)

	if _, err := idx.ByID("P"); !errors.Is(err, ErrAmbiguousOccurrence) {
		t.Errorf("ByID(P) err = %v, want ErrAmbiguousOccurrence", err)
	}
	occ, err := idx.Resolve([]string{"R", "P"})
	if err != nil {
		t.Fatalf("Resolve(R/P): %v", err)
	}
	if occ.Root() != "R" {
		t.Errorf("resolved root = %s, want R", occ.Root())
	}
	if _, err := idx.ByID("nope"); !errors.Is(err, ErrInstanceNotFound) {
		t.Errorf("ByID(nope) err = %v, want ErrInstanceNotFound", err)
	}
}

func TestSuppressionIsInherited(t *testing.T) {
	idx := mustIndex(t, armWithHand().Suppress("H"))

	if !idx.Suppressed([]string{"H", "F1"}) {
		t.Error("finger under a suppressed hand should be suppressed")
	}
	if idx.Suppressed([]string{"B"}) {
		t.Error("arm should not be suppressed")
	}
	roots := idx.Roots()
	if len(roots) != 2 || roots[0] != "A" || roots[1] != "B" {
		t.Errorf("roots = %v, want [A B]", roots)
	}
	if parts := idx.Parts("H"); len(parts) != 0 {
		t.Errorf("suppressed hand parts = %d, want 0", len(parts))
	}
}

func TestNamesAndParts(t *testing.T) {
	idx := mustIndex(t, armWithHand())

	names := idx.Names([]string{"H", "F1"})
	if len(names) != 2 || names[0] != "Hand <1>" || names[1] != "Finger <1>" {
		t.Errorf("names = %v", names)
	}
	if idx.Name("B") != "Arm <1>" {
		t.Errorf("Name(B) = %q", idx.Name("B"))
	}
	if idx.Name("zz") != "zz" {
		t.Errorf("Name of unknown id should echo the id")
	}
	parts := idx.Parts("H")
	if len(parts) != 2 || parts[0].ID() != "F1" {
		t.Errorf("parts under H = %d", len(parts))
	}
	if first, ok := idx.FirstInstance(); !ok || first != "A" {
		t.Errorf("FirstInstance = %q, %v", first, ok)
	}
}
