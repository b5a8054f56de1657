package graph

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/chazu/linkage/pkg/assembly"
	"github.com/chazu/linkage/pkg/assembly/asmtest"
)

func TestRerootChain(t *testing.T) {
	tree, err := Reroot([]string{"A", "B", "C"}, []Edge{{"B", "C"}, {"A", "B"}}, "A")
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := tree.Parent("C"); !ok || p != "B" {
		t.Errorf("parent(C) = %q, %v", p, ok)
	}
	if _, ok := tree.Parent("A"); ok {
		t.Error("root should have no parent")
	}
	got := tree.DirectedEdges()
	want := []Edge{{"A", "B"}, {"B", "C"}}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("directed edges = %v, want %v", got, want)
	}
	// Rooting in the middle flips the first edge.
	tree, _ = Reroot([]string{"A", "B", "C"}, []Edge{{"A", "B"}, {"B", "C"}}, "B")
	if kids := tree.Children("B"); len(kids) != 2 || kids[0] != "A" || kids[1] != "C" {
		t.Errorf("children(B) = %v", kids)
	}
}

func TestRerootRootNotInGraph(t *testing.T) {
	_, err := Reroot([]string{"A"}, nil, "Z")
	if !errors.Is(err, ErrRootNotInGraph) {
		t.Fatalf("err = %v, want ErrRootNotInGraph", err)
	}
}

func TestOrient(t *testing.T) {
	tree, err := Reroot([]string{"A", "B", "C", "D"}, []Edge{{"A", "B"}, {"A", "C"}, {"B", "C"}}, "A")
	if err != nil {
		t.Fatal(err)
	}
	if p, c, err := tree.Orient("B", "A"); err != nil || p != "A" || c != "B" {
		t.Errorf("Orient(B, A) = %s, %s, %v", p, c, err)
	}
	if _, _, err := tree.Orient("B", "C"); !errors.Is(err, ErrRerootInconsistency) {
		t.Errorf("loop edge err = %v, want ErrRerootInconsistency", err)
	}
	if _, _, err := tree.Orient("A", "D"); !errors.Is(err, ErrRootNotInGraph) {
		t.Errorf("disconnected edge err = %v, want ErrRootNotInGraph", err)
	}
	if tree.Contains("D") {
		t.Error("D is disconnected and should not be in the tree")
	}
}

func TestRerootIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "nodes")
		nodes := make([]string, n)
		for i := range nodes {
			nodes[i] = fmt.Sprintf("n%02d", i)
		}
		pairs := rapid.SliceOfN(rapid.IntRange(0, n*n-1), 0, 30).Draw(t, "edges")
		var edges []Edge
		for _, p := range pairs {
			a, b := nodes[p/n], nodes[p%n]
			if a != b {
				edges = append(edges, Edge{a, b})
			}
		}
		root := nodes[rapid.IntRange(0, n-1).Draw(t, "root")]
		shuffled := rapid.Permutation(edges).Draw(t, "shuffled")

		first, err := Reroot(nodes, edges, root)
		if err != nil {
			t.Fatal(err)
		}
		second, err := Reroot(nodes, shuffled, root)
		if err != nil {
			t.Fatal(err)
		}
		if fmt.Sprint(first.DirectedEdges()) != fmt.Sprint(second.DirectedEdges()) {
			t.Fatalf("rerooting differs:\n%v\n%v", first.DirectedEdges(), second.DirectedEdges())
		}

		input := make(map[Edge]bool)
		for _, e := range edges {
			input[e] = true
			input[Edge{e.B, e.A}] = true
		}
		for _, e := range first.DirectedEdges() {
			if !input[e] {
				t.Fatalf("tree edge %v not in input", e)
			}
		}
		if got := len(first.DirectedEdges()); got != len(first.Nodes())-1 {
			t.Fatalf("tree has %d edges for %d nodes", got, len(first.Nodes()))
		}
	})
}

func TestSelectRoot(t *testing.T) {
	base := func() *asmtest.Builder {
		return asmtest.New().Part("A", "Base <1>").Part("B", "Arm <1>").Part("C", "Hand <1>")
	}

	idx, mg := mustMates(t, base().Connector("trunk", "C"))
	if root, _ := SelectRoot(idx, mg); root != "C" {
		t.Errorf("tagged trunk: root = %q, want C", root)
	}

	idx, mg = mustMates(t, base().Suppress("A").Fasten("f", "B", "C"))
	if root, _ := SelectRoot(idx, mg); root != "B" {
		t.Errorf("no dofs: root = %q, want B", root)
	}

	idx, mg = mustMates(t, base().
		Mate("dof_wrist", assembly.MateRevolute, asmtest.Entity("C"), asmtest.Entity("B")).
		Mate("dof_shoulder", assembly.MateRevolute, asmtest.Entity("B"), asmtest.Entity("A")))
	if root, _ := SelectRoot(idx, mg); root != "A" {
		t.Errorf("dof chain: root = %q, want A", root)
	}

	idx, mg = mustMates(t, base().
		Mate("dof_a", assembly.MateRevolute, asmtest.Entity("A"), asmtest.Entity("B")).
		Mate("dof_b", assembly.MateRevolute, asmtest.Entity("B"), asmtest.Entity("A")))
	if _, err := SelectRoot(idx, mg); !errors.Is(err, ErrNoTrunkCandidate) {
		t.Errorf("dof cycle: err = %v, want ErrNoTrunkCandidate", err)
	}
}

func TestSelectRootPrefersTaggedTrunk(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "parts")
		b := asmtest.New()
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("P%d", i)
			b.Part(ids[i], fmt.Sprintf("Part %d <1>", i))
		}
		for i := 1; i < n; i++ {
			child, parent := ids[i], ids[i-1]
			if rapid.Bool().Draw(t, fmt.Sprintf("flip%d", i)) {
				child, parent = parent, child
			}
			b.Mate(fmt.Sprintf("dof_j%d", i), assembly.MateRevolute, asmtest.Entity(child), asmtest.Entity(parent))
		}
		trunk := ids[rapid.IntRange(0, n-1).Draw(t, "trunk")]
		b.Connector("trunk", trunk)

		doc := b.Document()
		idx, err := NewIndex(doc)
		if err != nil {
			t.Fatal(err)
		}
		mg, err := BuildMates(idx, doc.RootAssembly.Features, nil)
		if err != nil {
			t.Fatal(err)
		}
		root, err := SelectRoot(idx, mg)
		if err != nil {
			t.Fatal(err)
		}
		if root != trunk {
			t.Fatalf("root = %q, want tagged trunk %q", root, trunk)
		}
	})
}

func TestRerootPreferringKeepsPreferredEdges(t *testing.T) {
	// A plain BFS from A takes A-C before B-C.
	nodes := []string{"A", "B", "C"}
	dofs := []Edge{{"A", "B"}, {"B", "C"}}
	edges := []Edge{{"A", "B"}, {"A", "C"}, {"B", "C"}}

	plain, err := Reroot(nodes, edges, "A")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := plain.Orient("B", "C"); !errors.Is(err, ErrRerootInconsistency) {
		t.Fatalf("plain BFS: Orient(B, C) err = %v, want ErrRerootInconsistency", err)
	}

	tree, err := RerootPreferring(nodes, dofs, edges, "A")
	if err != nil {
		t.Fatal(err)
	}
	if p, c, err := tree.Orient("C", "B"); err != nil || p != "B" || c != "C" {
		t.Errorf("Orient(C, B) = %s, %s, %v", p, c, err)
	}
	if _, _, err := tree.Orient("A", "C"); !errors.Is(err, ErrRerootInconsistency) {
		t.Errorf("closing edge err = %v, want ErrRerootInconsistency", err)
	}
}

func TestRerootPreferringCrossesOtherEdgesOneAtATime(t *testing.T) {
	// A reaches B and C only through plain edges; B-C is preferred and must
	// stay a tree edge even though A touches both.
	nodes := []string{"A", "B", "C", "D"}
	dofs := []Edge{{"B", "C"}}
	edges := []Edge{{"A", "B"}, {"A", "C"}, {"B", "C"}, {"C", "D"}}

	tree, err := RerootPreferring(nodes, dofs, edges, "A")
	if err != nil {
		t.Fatal(err)
	}
	if p, _ := tree.Parent("B"); p != "A" {
		t.Errorf("parent(B) = %q, want A", p)
	}
	if p, _ := tree.Parent("C"); p != "B" {
		t.Errorf("parent(C) = %q, want B", p)
	}
	if p, _ := tree.Parent("D"); p != "C" {
		t.Errorf("parent(D) = %q, want C", p)
	}
}

func TestRerootPreferringWithoutPreferredMatchesReroot(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(t, "nodes")
		nodes := make([]string, n)
		for i := range nodes {
			nodes[i] = fmt.Sprintf("n%02d", i)
		}
		pairs := rapid.SliceOfN(rapid.IntRange(0, n*n-1), 0, 25).Draw(t, "edges")
		var edges []Edge
		for _, p := range pairs {
			if a, b := nodes[p/n], nodes[p%n]; a != b {
				edges = append(edges, Edge{a, b})
			}
		}
		root := nodes[rapid.IntRange(0, n-1).Draw(t, "root")]

		// Preferring every edge is the same as preferring none.
		plain, err := Reroot(nodes, edges, root)
		if err != nil {
			t.Fatal(err)
		}
		all, err := RerootPreferring(nodes, edges, edges, root)
		if err != nil {
			t.Fatal(err)
		}
		if fmt.Sprint(plain.DirectedEdges()) != fmt.Sprint(all.DirectedEdges()) {
			t.Fatalf("trees differ:\n%v\n%v", plain.DirectedEdges(), all.DirectedEdges())
		}
	})
}
