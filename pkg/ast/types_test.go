package ast

import "testing"

func TestCloneIsDeepAndDisjoint(t *testing.T) {
	original := Binary(Add, Ident("var_0"), IntLit(3))
	clone := original.Clone()

	if clone.Kind != original.Kind || clone.Children[1].Literal != 3 {
		t.Fatalf("clone is not structurally equal: %+v vs %+v", clone, original)
	}

	// Mutate the clone; the original must be unaffected (disjoint objects).
	clone.Children[1].Literal = 99
	if original.Children[1].Literal == 99 {
		t.Error("mutating the clone affected the original: children are shared, not disjoint")
	}
}

func TestCloneNil(t *testing.T) {
	var e *Expression
	if e.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestStatementChild(t *testing.T) {
	s := PushStmt(IntLit(5))
	if s.Child() == nil || s.Child().Literal != 5 {
		t.Errorf("Child() = %+v, want IntLiteral(5)", s.Child())
	}

	gotoIf := GotoIfStmt("label_14", Ident("var_0"))
	if gotoIf.Child() != nil {
		t.Error("GotoIf has two children; Child() should return nil")
	}

	y := YieldStmt()
	if y.Child() != nil {
		t.Error("Yield has no children; Child() should return nil")
	}
}

func TestLabel(t *testing.T) {
	if got := Label(14); got != "label_14" {
		t.Errorf("Label(14) = %q, want %q", got, "label_14")
	}
}
