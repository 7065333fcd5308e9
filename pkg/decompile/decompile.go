// Package decompile ties the decoder, slicer, logical rewrite, and
// symbolic evaluator together into a single per-scene and per-container
// pipeline, and turns their output into renderable listings.
package decompile

import (
	"fmt"

	"github.com/chazu/pordis/pkg/bytecode"
	"github.com/chazu/pordis/pkg/container"
	"github.com/chazu/pordis/pkg/eval"
	"github.com/chazu/pordis/pkg/printer"
	"github.com/chazu/pordis/pkg/slicer"
)

// Options controls the decompilation pipeline's behavior.
type Options struct {
	Dialect bytecode.Dialect

	// IncludeBranchAndKeep switches the slicer into a debug mode where
	// BKY/BKN contribute slice points like any other jump. The logical
	// rewrite still runs on every slice and the evaluator has no case for
	// BKY/BKN, so in this mode a scene containing either one fails with a
	// slicer.LogicalRewriteError.
	IncludeBranchAndKeep bool

	// Cache, if non-nil, is consulted before running the pipeline over a
	// scene and populated with the result afterward.
	Cache *Cache
}

// Scene runs the full pipeline over one scene's script body and returns
// its renderable event listing.
func Scene(c *container.Container, scene container.Scene, opts Options) (printer.Event, error) {
	if opts.Cache != nil {
		if ev, ok, err := opts.Cache.Get(scene.Script, opts.Dialect); err == nil && ok {
			return ev, nil
		}
	}

	instructions, err := bytecode.Decode(scene.Script, opts.Dialect)
	if err != nil {
		return printer.Event{}, fmt.Errorf("decode %s: %w", scene.Name, err)
	}

	slices, err := slicer.Build(instructions, opts.IncludeBranchAndKeep)
	if err != nil {
		return printer.Event{}, fmt.Errorf("slice %s: %w", scene.Name, err)
	}

	labels := jumpLabels(instructions)
	scope := sceneScope(c, scene)

	var blocks []printer.Block
	for _, loc := range slices.Keys() {
		s, _ := slices.Get(loc)

		rewritten, err := slicer.RewriteLogical(s)
		if err != nil {
			return printer.Event{}, fmt.Errorf("rewrite %s: %w", scene.Name, err)
		}

		statements, err := eval.Evaluate(rewritten, scope)
		if err != nil {
			return printer.Event{}, fmt.Errorf("evaluate %s: %w", scene.Name, err)
		}

		blocks = append(blocks, printer.Block{Label: labels[loc], Statements: statements})
	}

	args := scene.VarNames[:scene.ArgCount]
	event := printer.Event{Name: scene.Name, Args: args, IsGlobal: scene.IsGlobal, Blocks: blocks}

	if opts.Cache != nil {
		if err := opts.Cache.Put(scene.Script, opts.Dialect, event); err != nil {
			return printer.Event{}, fmt.Errorf("cache %s: %w", scene.Name, err)
		}
	}

	return event, nil
}

// jumpLabels maps each location targeted by a non-keeping jump (B, BY,
// BN — not BKY/BKN, which never survive past the logical rewrite) to its
// synthesized label name.
func jumpLabels(instructions []bytecode.Instruction) map[int]string {
	labels := make(map[int]string)
	for _, ins := range instructions {
		if !ins.Opcode.IsJump() {
			continue
		}
		if ins.Opcode == bytecode.OpBKY || ins.Opcode == bytecode.OpBKN {
			continue
		}
		labels[int(ins.Operand)] = fmt.Sprintf("label_%d", ins.Operand)
	}
	return labels
}

func sceneScope(c *container.Container, scene container.Scene) eval.Scope {
	scenes := make([]eval.SceneRef, len(c.Scenes))
	for i, s := range c.Scenes {
		scenes[i] = eval.SceneRef{Name: s.Name, ArgCount: s.ArgCount}
	}
	return eval.Scope{
		VarNames:    scene.VarNames,
		GlobalNames: c.GlobalNames,
		Scenes:      scenes,
		Strings:     c,
	}
}

// All runs the pipeline over every scene in the container. A scene that
// fails to decompile is reported with its error captured on the
// resulting Event rather than aborting the remaining scenes, matching
// the reference tool's per-scene failure handling.
func All(c *container.Container, opts Options) []printer.Event {
	events := make([]printer.Event, len(c.Scenes))
	for i, scene := range c.Scenes {
		ev, err := Scene(c, scene, opts)
		if err != nil {
			events[i] = printer.Event{Name: scene.Name, IsGlobal: scene.IsGlobal, Err: err}
			continue
		}
		events[i] = ev
	}
	return events
}
