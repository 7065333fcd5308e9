package decompile

import (
	"testing"

	"github.com/chazu/pordis/pkg/ast"
	"github.com/chazu/pordis/pkg/printer"
)

func TestDumpCBORRoundTrips(t *testing.T) {
	events := []printer.Event{
		{
			Name: "main",
			Args: []string{"arg_0"},
			Blocks: []printer.Block{
				{Statements: []*ast.Statement{ast.ReturnStmt(ast.IntLit(4))}},
			},
		},
	}

	blob, err := DumpCBOR(events)
	if err != nil {
		t.Fatalf("DumpCBOR: %v", err)
	}

	got, err := LoadCBOR(blob)
	if err != nil {
		t.Fatalf("LoadCBOR: %v", err)
	}
	if len(got) != 1 || got[0].Name != "main" || len(got[0].Args) != 1 || got[0].Args[0] != "arg_0" {
		t.Fatalf("got = %+v, want round-tripped main event", got)
	}
	if len(got[0].Blocks) != 1 || len(got[0].Blocks[0].Statements) != 1 {
		t.Fatalf("got blocks = %+v", got[0].Blocks)
	}
	if got[0].Blocks[0].Statements[0].Kind != ast.Return {
		t.Errorf("Kind = %s, want Return", got[0].Blocks[0].Statements[0].Kind)
	}
}

func TestDumpCBORIsDeterministic(t *testing.T) {
	events := []printer.Event{{Name: "main"}}

	a, err := DumpCBOR(events)
	if err != nil {
		t.Fatalf("DumpCBOR: %v", err)
	}
	b, err := DumpCBOR(events)
	if err != nil {
		t.Fatalf("DumpCBOR: %v", err)
	}
	if string(a) != string(b) {
		t.Error("canonical encoding should be deterministic across calls")
	}
}
