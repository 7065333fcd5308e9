package printer

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/pordis/pkg/ast"
)

func TestFormatExprArithmetic(t *testing.T) {
	e := ast.Binary(ast.Add, ast.IntLit(2), ast.IntLit(3))
	if got, want := FormatExpr(e), "2 + 3"; got != want {
		t.Errorf("FormatExpr() = %q, want %q", got, want)
	}
}

func TestFormatExprRelationalGlyphs(t *testing.T) {
	cases := []struct {
		kind ast.ExprKind
		want string
	}{
		{ast.Lt, "var_0 <? var_1"},
		{ast.Le, "var_0 <= var_1"},
		{ast.Gt, "var_0 >? var_1"},
		{ast.Ge, "var_0 >=? var_1"},
		{ast.EqStr, "var_0 <=> var_1"},
		{ast.NeStr, "var_0 <!> var_1"},
	}
	for _, c := range cases {
		e := ast.Binary(c.kind, ast.Ident("var_0"), ast.Ident("var_1"))
		if got := FormatExpr(e); got != c.want {
			t.Errorf("FormatExpr(%s) = %q, want %q", c.kind, got, c.want)
		}
	}
}

func TestFormatExprAssignBracketsLHS(t *testing.T) {
	lhs := ast.Unary(ast.AddrOf, ast.Ident("var_0"))
	e := ast.Binary(ast.Assign, lhs, ast.IntLit(5))
	if got, want := FormatExpr(e), "[&var_0] = 5"; got != want {
		t.Errorf("FormatExpr() = %q, want %q", got, want)
	}
}

func TestFormatExprCall(t *testing.T) {
	e := ast.Call("log", []*ast.Expression{ast.IntLit(7), ast.IntLit(8)})
	if got, want := FormatExpr(e), `log(7, 8)`; got != want {
		t.Errorf("FormatExpr() = %q, want %q", got, want)
	}
}

func TestFormatStatementForms(t *testing.T) {
	cases := []struct {
		stmt *ast.Statement
		want string
	}{
		{ast.PushStmt(ast.IntLit(2)), "push 2;"},
		{ast.ExprStmt(ast.IntLit(2)), "2;"},
		{ast.ReturnStmt(ast.IntLit(0)), "return 0;"},
		{ast.GotoStmt("label_14"), "goto label_14;"},
		{ast.GotoIfStmt("label_14", ast.Ident("var_0")), "goto label_14 if var_0;"},
		{ast.YieldStmt(), "yield;"},
	}
	for _, c := range cases {
		if got := FormatStatement(c.stmt); got != c.want {
			t.Errorf("FormatStatement(%s) = %q, want %q", c.stmt.Kind, got, c.want)
		}
	}
}

func TestWriteListingRendersGlobalsAndEvent(t *testing.T) {
	var buf strings.Builder
	err := WriteListing(&buf, []string{"global_0"}, []Event{
		{
			Name: "main",
			Args: []string{"arg_0"},
			Blocks: []Block{
				{Statements: []*ast.Statement{ast.ReturnStmt(ast.IntLit(0))}},
			},
		},
	})
	if err != nil {
		t.Fatalf("WriteListing: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"VARIABLE global_0;", "EVENT main(arg_0)", "return 0;", "}"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteListingRendersFailure(t *testing.T) {
	var buf strings.Builder
	err := WriteListing(&buf, nil, []Event{
		{Name: "broken", Err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("WriteListing: %v", err)
	}
	if !strings.Contains(buf.String(), "FAILED broken") {
		t.Errorf("output missing FAILED marker:\n%s", buf.String())
	}
}

func TestWriteListingLabelsBlock(t *testing.T) {
	var buf strings.Builder
	err := WriteListing(&buf, nil, []Event{
		{
			Name: "loop",
			Blocks: []Block{
				{Statements: []*ast.Statement{ast.GotoStmt("label_4")}},
				{Label: "label_4", Statements: []*ast.Statement{ast.ReturnStmt(ast.IntLit(0))}},
			},
		},
	})
	if err != nil {
		t.Fatalf("WriteListing: %v", err)
	}
	if !strings.Contains(buf.String(), "label_4:\n  return 0;") {
		t.Errorf("output missing labeled block:\n%s", buf.String())
	}
}
