// Package slicer partitions a decoded instruction stream into
// basic-block-like slices at jump boundaries, and rewrites each slice's
// branch-and-keep idiom into synthetic logical-AND / logical-OR
// instructions.
package slicer

import (
	"fmt"

	"github.com/chazu/pordis/pkg/bytecode"
)

// Slice is a contiguous subrange of the decoded instruction stream,
// bounded by slice points (jump sources/targets and return points).
type Slice struct {
	Instructions []bytecode.Instruction
}

// FirstLocation returns the location of the slice's first instruction.
func (s Slice) FirstLocation() int {
	if len(s.Instructions) == 0 {
		return -1
	}
	return s.Instructions[0].Location
}

// Build partitions instructions into slices keyed by each slice's first
// location, in an ordered offset map.
//
// By default BKY/BKN do not contribute slice points: they are consumed
// whole by RewriteLogical within a single slice, and treating them as
// inter-slice jumps would fragment short-circuit expressions across
// slice boundaries. Passing includeBranchAndKeep=true switches to a debug
// mode that treats them as full jumps, splitting slices at their target
// like any other branch.
//
// A jump that contributes slice points must target the location of a
// decoded instruction or the end of the last one; any other target is
// reported as a *bytecode.DecodeError.
func Build(instructions []bytecode.Instruction, includeBranchAndKeep bool) (*OffsetMap[int, Slice], error) {
	slicePoints := make(map[int]struct{})

	boundaries := make(map[int]struct{}, len(instructions)+1)
	for _, ins := range instructions {
		boundaries[ins.Location] = struct{}{}
	}
	if n := len(instructions); n > 0 {
		last := instructions[n-1]
		boundaries[last.Location+1+last.Opcode.OperandSize()] = struct{}{}
	}

	for _, ins := range instructions {
		if ins.Opcode.IsJump() {
			suppressed := !includeBranchAndKeep && (ins.Opcode == bytecode.OpBKY || ins.Opcode == bytecode.OpBKN)
			if !suppressed {
				if _, ok := boundaries[int(ins.Operand)]; !ok {
					return nil, &bytecode.DecodeError{Offset: ins.Location, Reason: fmt.Sprintf("jump target %d is not on an instruction boundary", ins.Operand)}
				}
				slicePoints[ins.Location+1+ins.Opcode.OperandSize()] = struct{}{}
				slicePoints[int(ins.Operand)] = struct{}{}
			}
		}
		if ins.Opcode.IsReturn() {
			slicePoints[ins.Location+1] = struct{}{}
		}
	}

	sorted := make([]int, 0, len(slicePoints))
	for p := range slicePoints {
		sorted = append(sorted, p)
	}
	sortInts(sorted)

	result := &OffsetMap[int, Slice]{}
	if len(instructions) == 0 {
		return result, nil
	}

	nextPointIdx := 0
	var current []bytecode.Instruction
	for _, ins := range instructions {
		for nextPointIdx < len(sorted) && ins.Location >= sorted[nextPointIdx] {
			if len(current) > 0 {
				result.Set(current[0].Location, Slice{Instructions: current})
				current = nil
			}
			nextPointIdx++
		}
		current = append(current, ins)
	}
	if len(current) > 0 {
		result.Set(current[0].Location, Slice{Instructions: current})
	}

	return result, nil
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// LogicalRewriteError is error kind 5: a branch-and-keep chain whose
// target leaves the slice it was found in, rather than being silently
// folded into a corrupted slice.
type LogicalRewriteError struct {
	Location int
	Target   int
}

func (e *LogicalRewriteError) Error() string {
	return fmt.Sprintf("branch-and-keep at %d targets %d, outside its slice", e.Location, e.Target)
}

// RewriteLogical scans a slice left to right and replaces each BKY/BKN
// chain with a synthetic FAKE_LORR/FAKE_LAND instruction, bubbling the
// instructions that made up the short-circuited operand one position to
// the left of the branch so evaluation order is preserved. It returns a
// new slice; the input is left untouched.
func RewriteLogical(s Slice) (Slice, error) {
	out := make([]bytecode.Instruction, len(s.Instructions))
	copy(out, s.Instructions)

	for i := 0; i < len(out); i++ {
		op := out[i].Opcode
		if op != bytecode.OpBKY && op != bytecode.OpBKN {
			continue
		}

		target := int(out[i].Operand)
		bk := out[i]
		j := i + 1
		for {
			if j >= len(out) {
				return Slice{}, &LogicalRewriteError{Location: bk.Location, Target: target}
			}
			if out[j].Location == target {
				break
			}
			out[j-1] = out[j]
			j++
		}
		out[j-1] = bk

		if op == bytecode.OpBKN {
			out[j-1].Opcode = bytecode.OpFakeLAnd
		} else {
			out[j-1].Opcode = bytecode.OpFakeLOrr
		}
		out[j-1].Operand = 0
	}

	return Slice{Instructions: out}, nil
}
