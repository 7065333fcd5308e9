// Package printer renders the decompiler's reconstructed globals, event
// scenes, and statement lists as a human-readable pseudo-source listing.
package printer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chazu/pordis/pkg/ast"
)

// FormatExpr renders an expression using the reference glyph set. It is
// not meant to round-trip through any parser; there is none.
func FormatExpr(e *ast.Expression) string {
	switch e.Kind {
	case ast.IntLiteral:
		return fmt.Sprintf("%d", e.Literal)
	case ast.StrLiteral:
		return fmt.Sprintf("%q", e.Name)
	case ast.Named:
		return e.Name

	case ast.Deref:
		return "[" + FormatExpr(e.Children[0]) + "]"
	case ast.AddrOf:
		return "&" + FormatExpr(e.Children[0])
	case ast.Neg:
		return "-" + FormatExpr(e.Children[0])
	case ast.Not:
		return "!" + FormatExpr(e.Children[0])
	case ast.BitwiseNot:
		return "~" + FormatExpr(e.Children[0])
	case ast.Inc:
		return "++" + FormatExpr(e.Children[0])
	case ast.Dec:
		return "--" + FormatExpr(e.Children[0])

	case ast.Assign:
		return "[" + FormatExpr(e.Children[0]) + "] = " + FormatExpr(e.Children[1])

	case ast.Add:
		return binary(e, "+")
	case ast.Sub:
		return binary(e, "-")
	case ast.Mul:
		return binary(e, "*")
	case ast.Div:
		return binary(e, "/")
	case ast.Mod:
		return binary(e, "%")
	case ast.And:
		return binary(e, "&")
	case ast.Or:
		return binary(e, "|")
	case ast.Xor:
		return binary(e, "^")
	case ast.Lsl:
		return binary(e, "<<")
	case ast.Lsr:
		return binary(e, ">>")

	case ast.Eq:
		return binary(e, "==")
	case ast.Ne:
		return binary(e, "!=")
	case ast.Lt:
		return binary(e, "<?") // relational semantics uncertain; see Open Questions
	case ast.Le:
		return binary(e, "<=")
	case ast.Gt:
		return binary(e, ">?")
	case ast.Ge:
		return binary(e, ">=?")
	case ast.EqStr:
		return binary(e, "<=>")
	case ast.NeStr:
		return binary(e, "<!>")
	case ast.LogicalAnd:
		return binary(e, "&&")
	case ast.LogicalOr:
		return binary(e, "||")

	case ast.Func:
		args := make([]string, len(e.Children))
		for i, c := range e.Children {
			args[i] = FormatExpr(c)
		}
		return e.Name + "(" + strings.Join(args, ", ") + ")"

	default:
		return "<expr>"
	}
}

func binary(e *ast.Expression, op string) string {
	return FormatExpr(e.Children[0]) + " " + op + " " + FormatExpr(e.Children[1])
}

// FormatStatement renders a single statement, without its trailing
// newline.
func FormatStatement(s *ast.Statement) string {
	switch s.Kind {
	case ast.Push:
		return "push " + FormatExpr(s.Children[0]) + ";"
	case ast.Expr:
		return FormatExpr(s.Children[0]) + ";"
	case ast.Return:
		return "return " + FormatExpr(s.Children[0]) + ";"
	case ast.Goto:
		return "goto " + FormatExpr(s.Children[0]) + ";"
	case ast.GotoIf:
		return "goto " + FormatExpr(s.Children[0]) + " if " + FormatExpr(s.Children[1]) + ";"
	case ast.Yield:
		return "yield;"
	default:
		return "<invalid statement>"
	}
}

// Block is one slice's worth of reconstructed statements, optionally
// preceded by a label when some jump in the scene targets it.
type Block struct {
	Label      string
	Statements []*ast.Statement
}

// Event is a single reconstructed event scene, ready to render. Err, if
// set, means the scene could not be decompiled; the listing reports
// "FAILED" for it and moves on rather than aborting the whole container.
type Event struct {
	Name     string
	Args     []string
	IsGlobal bool
	Blocks   []Block
	Err      error `cbor:"-"`
}

// WriteListing renders every global and event to w in program order.
func WriteListing(w io.Writer, globalNames []string, events []Event) error {
	bw := bufio.NewWriter(w)

	for _, g := range globalNames {
		fmt.Fprintf(bw, "VARIABLE %s;\n", g)
	}
	if len(globalNames) > 0 {
		fmt.Fprintln(bw)
	}

	for _, ev := range events {
		writeEvent(bw, ev)
	}

	return bw.Flush()
}

func writeEvent(bw *bufio.Writer, ev Event) {
	fmt.Fprintf(bw, "EVENT %s(%s)", ev.Name, strings.Join(ev.Args, ", "))
	if ev.IsGlobal {
		fmt.Fprint(bw, " global")
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "{")

	if ev.Err != nil {
		fmt.Fprintf(bw, "FAILED %s\n", ev.Name)
		fmt.Fprintln(bw, "}")
		fmt.Fprintln(bw)
		return
	}

	for i, block := range ev.Blocks {
		if len(block.Statements) == 0 && block.Label == "" {
			continue
		}
		if i != 0 {
			fmt.Fprintln(bw)
		}
		if block.Label != "" {
			fmt.Fprintf(bw, "%s:\n", block.Label)
		}
		for _, stmt := range block.Statements {
			fmt.Fprintf(bw, "  %s\n", FormatStatement(stmt))
		}
	}

	fmt.Fprintln(bw, "}")
	fmt.Fprintln(bw)
}
