// Package eval folds a post-rewrite instruction slice into a statement
// list by walking it once and keeping the statement list itself as a
// shadow value stack: the trailing run of Push statements stands in for
// pending operands.
package eval

import (
	"fmt"

	"github.com/chazu/pordis/pkg/ast"
	"github.com/chazu/pordis/pkg/bytecode"
	"github.com/chazu/pordis/pkg/slicer"
)

// StringPool resolves a string-pool byte offset to its NUL-terminated
// string. Implemented by the script container.
type StringPool interface {
	GetString(offset int) (string, error)
}

// SceneRef is what the evaluator needs to resolve a CALL: the callee's
// synthesized name and how many arguments it expects.
type SceneRef struct {
	Name     string
	ArgCount int
}

// Scope is the name-resolution context surrounding a slice: the
// enclosing scene's local variable names, plus the container's globals,
// scene table, and string pool.
type Scope struct {
	VarNames    []string
	GlobalNames []string
	Scenes      []SceneRef
	Strings     StringPool
}

func (s Scope) varName(slot int32) (string, error) {
	if slot < 0 || int(slot) >= len(s.VarNames) {
		return "", fmt.Errorf("local slot %d out of range (have %d)", slot, len(s.VarNames))
	}
	return s.VarNames[slot], nil
}

func (s Scope) globalName(slot int32) (string, error) {
	if slot < 0 || int(slot) >= len(s.GlobalNames) {
		return "", fmt.Errorf("global slot %d out of range (have %d)", slot, len(s.GlobalNames))
	}
	return s.GlobalNames[slot], nil
}

func (s Scope) scene(index int32) (SceneRef, error) {
	if index < 0 || int(index) >= len(s.Scenes) {
		return SceneRef{}, fmt.Errorf("scene index %d out of range (have %d)", index, len(s.Scenes))
	}
	return s.Scenes[index], nil
}

// StackError is error kind 6: a consuming opcode found fewer pushes than
// it needed, or a non-Push statement where it expected a value.
type StackError struct {
	Location int
	Opcode   bytecode.Opcode
	Reason   string
}

func (e *StackError) Error() string {
	return fmt.Sprintf("%s at %d: %s", e.Opcode, e.Location, e.Reason)
}

func stackErr(loc int, op bytecode.Opcode, format string, args ...any) error {
	return &StackError{Location: loc, Opcode: op, Reason: fmt.Sprintf(format, args...)}
}

type evaluator struct {
	scope      Scope
	statements []*ast.Statement
	loc        int
	op         bytecode.Opcode
}

func (e *evaluator) push(expr *ast.Expression) {
	e.statements = append(e.statements, ast.PushStmt(expr))
}

func (e *evaluator) emit(stmt *ast.Statement) {
	e.statements = append(e.statements, stmt)
}

// expectPush returns the trailing window of n statements, failing unless
// every one of them is a Push.
func (e *evaluator) expectPush(n int) ([]*ast.Statement, error) {
	if n > len(e.statements) {
		return nil, stackErr(e.loc, e.op, "needs %d pushes, have %d", n, len(e.statements))
	}
	window := e.statements[len(e.statements)-n:]
	for _, s := range window {
		if s.Kind != ast.Push {
			return nil, stackErr(e.loc, e.op, "expected a push on top of the stack, found %s", s.Kind)
		}
	}
	return window, nil
}

func (e *evaluator) top() (*ast.Statement, error) {
	window, err := e.expectPush(1)
	if err != nil {
		return nil, err
	}
	return window[0], nil
}

// mutateTop rewrites the expression on top of the stack in place without
// changing the number of pending pushes. Used by the VALX/VALY/REFX/REFY
// addressing-mode opcodes, which modify rather than consume the operand
// already on top.
func (e *evaluator) mutateTop(f func(*ast.Expression) *ast.Expression) error {
	top, err := e.top()
	if err != nil {
		return err
	}
	top.Children[0] = f(top.Children[0])
	return nil
}

func (e *evaluator) unop(kind ast.ExprKind) error {
	return e.mutateTop(func(inner *ast.Expression) *ast.Expression {
		return ast.Unary(kind, inner)
	})
}

func (e *evaluator) binop(kind ast.ExprKind) error {
	window, err := e.expectPush(2)
	if err != nil {
		return err
	}
	left, right := window[0].Child(), window[1].Child()
	e.statements = e.statements[:len(e.statements)-2]
	e.push(ast.Binary(kind, left, right))
	return nil
}

func (e *evaluator) call(name string, argc int) error {
	window, err := e.expectPush(argc)
	if err != nil {
		return err
	}
	args := make([]*ast.Expression, argc)
	for i, s := range window {
		args[i] = s.Child()
	}
	if argc > 0 {
		e.statements = e.statements[:len(e.statements)-argc]
	}
	e.push(ast.Call(name, args))
	return nil
}

// dup pushes a deep copy of the top push's expression without consuming
// it.
func (e *evaluator) dup() error {
	top, err := e.top()
	if err != nil {
		return err
	}
	e.push(top.Child().Clone())
	return nil
}

// peekDeref pushes a Deref over a copy of the top push's expression
// without consuming it (DEREF).
func (e *evaluator) peekDeref() error {
	top, err := e.top()
	if err != nil {
		return err
	}
	e.push(ast.Unary(ast.Deref, top.Child().Clone()))
	return nil
}

// discardTop reclassifies the top Push statement as a bare Expr
// statement (DISC, and the tail end of ASSIGN/PRINTF).
func (e *evaluator) discardTop() error {
	top, err := e.top()
	if err != nil {
		return err
	}
	top.Kind = ast.Expr
	return nil
}

// returnTop reclassifies the top Push statement as a Return (RETURN).
func (e *evaluator) returnTop() error {
	top, err := e.top()
	if err != nil {
		return err
	}
	top.Kind = ast.Return
	return nil
}

func addr(name string) *ast.Expression { return ast.Unary(ast.AddrOf, ast.Ident(name)) }

// Evaluate folds s's instructions (already past the logical rewrite)
// into a statement list.
func Evaluate(s slicer.Slice, scope Scope) ([]*ast.Statement, error) {
	e := &evaluator{scope: scope}
	for _, ins := range s.Instructions {
		e.loc = ins.Location
		e.op = ins.Opcode
		if err := e.step(ins); err != nil {
			return nil, err
		}
	}
	return e.statements, nil
}

func (e *evaluator) step(ins bytecode.Instruction) error {
	switch ins.Opcode {

	case bytecode.OpNop, bytecode.OpDebug40:
		return nil

	case bytecode.OpVal8, bytecode.OpVal16:
		name, err := e.scope.varName(ins.Operand)
		if err != nil {
			return err
		}
		e.push(ast.Ident(name))
		return nil

	case bytecode.OpValX8, bytecode.OpValX16:
		name, err := e.scope.varName(ins.Operand)
		if err != nil {
			return err
		}
		return e.mutateTop(func(top *ast.Expression) *ast.Expression {
			return ast.Unary(ast.Deref, ast.Binary(ast.Add, addr(name), top))
		})

	case bytecode.OpValY8, bytecode.OpValY16:
		// Same indexed-dereference shape as VALX, but the local itself
		// holds the base address rather than being addressed by name.
		name, err := e.scope.varName(ins.Operand)
		if err != nil {
			return err
		}
		return e.mutateTop(func(top *ast.Expression) *ast.Expression {
			return ast.Unary(ast.Deref, ast.Binary(ast.Add, ast.Ident(name), top))
		})

	case bytecode.OpRef8, bytecode.OpRef16:
		name, err := e.scope.varName(ins.Operand)
		if err != nil {
			return err
		}
		e.push(addr(name))
		return nil

	case bytecode.OpRefX8, bytecode.OpRefX16:
		name, err := e.scope.varName(ins.Operand)
		if err != nil {
			return err
		}
		return e.mutateTop(func(top *ast.Expression) *ast.Expression {
			return ast.Binary(ast.Add, addr(name), top)
		})

	case bytecode.OpRefY8, bytecode.OpRefY16:
		name, err := e.scope.varName(ins.Operand)
		if err != nil {
			return err
		}
		return e.mutateTop(func(top *ast.Expression) *ast.Expression {
			return ast.Binary(ast.Add, ast.Ident(name), top)
		})

	case bytecode.OpGVal8, bytecode.OpGVal16:
		name, err := e.scope.globalName(ins.Operand)
		if err != nil {
			return err
		}
		e.push(ast.Ident(name))
		return nil

	case bytecode.OpGValX8, bytecode.OpGValX16:
		name, err := e.scope.globalName(ins.Operand)
		if err != nil {
			return err
		}
		return e.mutateTop(func(top *ast.Expression) *ast.Expression {
			return ast.Unary(ast.Deref, ast.Binary(ast.Add, addr(name), top))
		})

	case bytecode.OpGValY8, bytecode.OpGValY16:
		name, err := e.scope.globalName(ins.Operand)
		if err != nil {
			return err
		}
		return e.mutateTop(func(top *ast.Expression) *ast.Expression {
			return ast.Unary(ast.Deref, ast.Binary(ast.Add, ast.Ident(name), top))
		})

	case bytecode.OpGRef8, bytecode.OpGRef16:
		name, err := e.scope.globalName(ins.Operand)
		if err != nil {
			return err
		}
		e.push(addr(name))
		return nil

	case bytecode.OpGRefX8, bytecode.OpGRefX16:
		name, err := e.scope.globalName(ins.Operand)
		if err != nil {
			return err
		}
		return e.mutateTop(func(top *ast.Expression) *ast.Expression {
			return ast.Binary(ast.Add, addr(name), top)
		})

	case bytecode.OpGRefY8, bytecode.OpGRefY16:
		name, err := e.scope.globalName(ins.Operand)
		if err != nil {
			return err
		}
		return e.mutateTop(func(top *ast.Expression) *ast.Expression {
			return ast.Binary(ast.Add, ast.Ident(name), top)
		})

	case bytecode.OpNumber8, bytecode.OpNumber16, bytecode.OpNumber32:
		e.push(ast.IntLit(ins.Operand))
		return nil

	case bytecode.OpString8, bytecode.OpString16, bytecode.OpString32:
		str, err := e.scope.Strings.GetString(int(ins.Operand))
		if err != nil {
			return fmt.Errorf("%s at %d: %w", ins.Opcode, ins.Location, err)
		}
		e.push(ast.StrLit(str))
		return nil

	case bytecode.OpDeref:
		return e.peekDeref()

	case bytecode.OpDup:
		return e.dup()

	case bytecode.OpDisc:
		return e.discardTop()

	case bytecode.OpStore:
		return e.binop(ast.Assign)

	case bytecode.OpAdd:
		return e.binop(ast.Add)
	case bytecode.OpSub:
		return e.binop(ast.Sub)
	case bytecode.OpMul:
		return e.binop(ast.Mul)
	case bytecode.OpDiv:
		return e.binop(ast.Div)
	case bytecode.OpMod:
		return e.binop(ast.Mod)
	case bytecode.OpOrr:
		return e.binop(ast.Or)
	case bytecode.OpAnd:
		return e.binop(ast.And)
	case bytecode.OpXor:
		return e.binop(ast.Xor)
	case bytecode.OpLsl:
		return e.binop(ast.Lsl)
	case bytecode.OpLsr:
		return e.binop(ast.Lsr)

	case bytecode.OpEq:
		return e.binop(ast.Eq)
	case bytecode.OpNe:
		return e.binop(ast.Ne)
	case bytecode.OpLt:
		return e.binop(ast.Lt)
	case bytecode.OpLe:
		return e.binop(ast.Le)
	case bytecode.OpGt:
		return e.binop(ast.Gt)
	case bytecode.OpGe:
		return e.binop(ast.Ge)
	case bytecode.OpEqStr:
		return e.binop(ast.EqStr)
	case bytecode.OpNeStr:
		return e.binop(ast.NeStr)

	case bytecode.OpNeg:
		return e.unop(ast.Neg)
	case bytecode.OpNot:
		return e.unop(ast.Not)
	case bytecode.OpMvn:
		return e.unop(ast.BitwiseNot)
	case bytecode.OpInc:
		return e.unop(ast.Inc)
	case bytecode.OpDec:
		return e.unop(ast.Dec)

	case bytecode.OpCall:
		scn, err := e.scope.scene(ins.Operand)
		if err != nil {
			return err
		}
		return e.call(scn.Name, scn.ArgCount)

	case bytecode.OpCallExt:
		raw := uint32(ins.Operand) & 0xFFFFFF
		offset, argc := int(raw>>8), int(raw&0xFF)
		name, err := e.scope.Strings.GetString(offset)
		if err != nil {
			return fmt.Errorf("%s at %d: %w", ins.Opcode, ins.Location, err)
		}
		return e.call(name, argc)

	case bytecode.OpPrintf:
		if err := e.call("__printf", int(ins.Operand)); err != nil {
			return err
		}
		return e.discardTop()

	case bytecode.OpReturn:
		return e.returnTop()

	case bytecode.OpRetN:
		e.emit(ast.ReturnStmt(ast.IntLit(0)))
		return nil

	case bytecode.OpRetY:
		e.emit(ast.ReturnStmt(ast.IntLit(1)))
		return nil

	case bytecode.OpAssign:
		if err := e.binop(ast.Assign); err != nil {
			return err
		}
		return e.discardTop()

	case bytecode.OpB:
		e.emit(ast.GotoStmt(ast.Label(ins.Operand)))
		return nil

	case bytecode.OpBN:
		window, err := e.expectPush(1)
		if err != nil {
			return err
		}
		cond := window[0].Child()
		e.statements = e.statements[:len(e.statements)-1]
		e.emit(ast.GotoIfStmt(ast.Label(ins.Operand), ast.Unary(ast.Not, cond)))
		return nil

	case bytecode.OpBY:
		window, err := e.expectPush(1)
		if err != nil {
			return err
		}
		cond := window[0].Child()
		e.statements = e.statements[:len(e.statements)-1]
		e.emit(ast.GotoIfStmt(ast.Label(ins.Operand), cond))
		return nil

	case bytecode.OpYield:
		e.emit(ast.YieldStmt())
		return nil

	case bytecode.OpFakeLAnd:
		return e.binop(ast.LogicalAnd)
	case bytecode.OpFakeLOrr:
		return e.binop(ast.LogicalOr)

	default:
		return fmt.Errorf("eval: opcode %s at %d has no evaluator semantics", ins.Opcode, ins.Location)
	}
}
