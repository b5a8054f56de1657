package graph

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chazu/linkage/pkg/assembly"
	"github.com/chazu/linkage/pkg/assembly/asmtest"
)

func mustMates(t *testing.T, b *asmtest.Builder) (*Index, *MateGraph) {
	t.Helper()
	doc := b.Document()
	idx, err := NewIndex(doc)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	mg, err := BuildMates(idx, doc.RootAssembly.Features, nil)
	if err != nil {
		t.Fatalf("BuildMates: %v", err)
	}
	return idx, mg
}

func TestClassifyMateName(t *testing.T) {
	tests := []struct {
		name     string
		kind     MateKind
		derived  string
		inverted bool
	}{
		{"dof_shoulder", MateDOF, "shoulder", false},
		{"dof_elbow_inv", MateDOF, "elbow", true},
		{"dof_wrist_roll_inverted", MateDOF, "wrist_roll", true},
		{"frame_tip", MateFrame, "tip", false},
		{"Fastened 1", MateStructural, "", false},
		{"dofy", MateStructural, "", false},
	}
	for _, tt := range tests {
		kind, derived, inverted, err := ClassifyMateName(tt.name)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if kind != tt.kind || derived != tt.derived || inverted != tt.inverted {
			t.Errorf("%s: got (%s, %q, %v), want (%s, %q, %v)",
				tt.name, kind, derived, inverted, tt.kind, tt.derived, tt.inverted)
		}
	}

	for _, name := range []string{"dof", "dof_", "dof_inv"} {
		if _, _, _, err := ClassifyMateName(name); !errors.Is(err, ErrEmptyDOFName) {
			t.Errorf("%s: err = %v, want ErrEmptyDOFName", name, err)
		}
	}
}

func TestBuildMatesClassifiesAndCollectsEdges(t *testing.T) {
	_, mg := mustMates(t, armWithHand().
		Connector("trunk", "A").
		Connector("link_forearm", "B").
		Mate("dof_shoulder", assembly.MateRevolute, asmtest.Entity("B"), asmtest.Entity("A")).
		Mate("Fastened 1", assembly.MateFastened, asmtest.Entity("H", "F1"), asmtest.Entity("B")).
		Mate("Fastened 2", assembly.MateFastened, asmtest.Entity("B"), asmtest.Entity("H", "F2")))

	if mg.Trunk != "A" {
		t.Errorf("trunk = %q, want A", mg.Trunk)
	}
	if len(mg.LinkTags) != 1 || mg.LinkTags[0].Name != "forearm" || mg.LinkTags[0].Root != "B" {
		t.Errorf("link tags = %+v", mg.LinkTags)
	}
	if n := len(mg.DOFs()); n != 1 {
		t.Fatalf("dof count = %d, want 1", n)
	}
	if dof := mg.DOFs()[0]; dof.Name != "shoulder" || dof.Entities[0].Root() != "B" {
		t.Errorf("dof = %+v", dof)
	}
	if n := len(mg.Structural()); n != 2 {
		t.Errorf("structural count = %d, want 2", n)
	}
	// Both fastened mates join B and H; the edge appears once.
	want := []Edge{{"A", "B"}, {"B", "H"}}
	if len(mg.Edges) != len(want) {
		t.Fatalf("edges = %v, want %v", mg.Edges, want)
	}
	for i := range want {
		if mg.Edges[i] != want[i] {
			t.Errorf("edge %d = %v, want %v", i, mg.Edges[i], want[i])
		}
	}
}

func TestBuildMatesSkipsSuppressed(t *testing.T) {
	b := armWithHand().
		Suppress("H").
		Fasten("to hand", "B", "H").
		Feature(assembly.Feature{
			FeatureType: assembly.FeatureMate,
			Suppressed:  true,
			FeatureData: assembly.FeatureData{
				Name:          "dof_off",
				MateType:      assembly.MateRevolute,
				MatedEntities: []assembly.MatedEntity{asmtest.Entity("B"), asmtest.Entity("A")},
			},
		})
	_, mg := mustMates(t, b)
	if len(mg.Mates) != 0 || len(mg.Edges) != 0 {
		t.Errorf("mates = %d, edges = %d, want none", len(mg.Mates), len(mg.Edges))
	}
}

func TestBuildMatesSkipsIncompleteMates(t *testing.T) {
	b := armWithHand().Feature(assembly.Feature{
		FeatureType: assembly.FeatureMate,
		FeatureData: assembly.FeatureData{
			Name:          "Revolute 3",
			MateType:      assembly.MateRevolute,
			MatedEntities: []assembly.MatedEntity{asmtest.Entity("B"), asmtest.Entity()},
		},
	})
	_, mg := mustMates(t, b)
	if len(mg.Mates) != 0 {
		t.Errorf("incomplete structural mate should be skipped")
	}
}

func TestBuildMatesFrameWithoutConnectorIsFatal(t *testing.T) {
	doc := armWithHand().Feature(assembly.Feature{
		FeatureType: assembly.FeatureMate,
		FeatureData: assembly.FeatureData{
			Name:          "frame_tool",
			MateType:      assembly.MateFastened,
			MatedEntities: []assembly.MatedEntity{asmtest.Entity("B")},
		},
	}).Document()
	idx, err := NewIndex(doc)
	if err != nil {
		t.Fatal(err)
	}
	_, err = BuildMates(idx, doc.RootAssembly.Features, nil)
	if !errors.Is(err, ErrFrameMissingConnector) {
		t.Fatalf("err = %v, want ErrFrameMissingConnector", err)
	}
	var me *MateError
	if !errors.As(err, &me) || me.Mate != "frame_tool" {
		t.Errorf("error should name the mate, got %v", err)
	}
}

func TestBuildMatesDOFOnOneOccurrenceIsFatal(t *testing.T) {
	doc := armWithHand().
		Mate("dof_finger", assembly.MateRevolute, asmtest.Entity("H", "F1"), asmtest.Entity("H", "F2")).
		Document()
	idx, _ := NewIndex(doc)
	if _, err := BuildMates(idx, doc.RootAssembly.Features, nil); !errors.Is(err, ErrRerootInconsistency) {
		t.Fatalf("err = %v, want ErrRerootInconsistency", err)
	}
}

func TestBuildMatesWarnsOnOriginConnector(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	doc := armWithHand().Connector("link_base").Document()
	idx, _ := NewIndex(doc)

	mg, err := BuildMates(idx, doc.RootAssembly.Features, zap.New(core))
	if err != nil {
		t.Fatal(err)
	}
	if len(mg.Diagnostics) != 1 || mg.Diagnostics[0].Severity != SeverityWarning {
		t.Fatalf("diagnostics = %v", mg.Diagnostics)
	}
	if logs.Len() != 1 {
		t.Errorf("warn logs = %d, want 1", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["subject"]; got != "link_base" {
		t.Errorf("logged subject = %v", got)
	}
}

func TestBuildMatesGroups(t *testing.T) {
	_, mg := mustMates(t, armWithHand().Group("Group 1", "B", "H", "B"))
	if len(mg.Groups) != 1 || len(mg.Groups[0].Members) != 2 {
		t.Fatalf("groups = %+v", mg.Groups)
	}
	if len(mg.Edges) != 1 || mg.Edges[0] != (Edge{"B", "H"}) {
		t.Errorf("edges = %v", mg.Edges)
	}
}
