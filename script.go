package fable

import (
	"context"
	"fmt"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Invoker runs user-authored script source against a fixed namespace of host
// commands. Implementations must isolate failures: a broken script returns
// an error, it never panics the engine, and it may only reach the commands
// it was given.
type Invoker interface {
	Run(ctx context.Context, source string, commands map[string]any) error
}

// scriptImportPath is the package user scripts see the command namespace
// under. The interpreter dot-imports it, so scripts call Say(...) directly.
const scriptImportPath = "fable/fable"

// GoInvoker runs scripts as Go source in an embedded [yaegi] interpreter.
// Each Run gets a fresh interpreter, so scripts cannot leak state into each
// other; only the command namespace and the standard library are reachable.
//
// [yaegi]: https://github.com/traefik/yaegi
type GoInvoker struct{}

// NewGoInvoker creates the yaegi-backed script invoker.
func NewGoInvoker() *GoInvoker {
	return &GoInvoker{}
}

// Run executes source as a sequence of Go statements. The commands map is
// exposed as a dot-imported package, so a script reads as plain calls:
//
//	Say("hello!")
//	if Tagged(Avatar(), "met-ghost") {
//		Say("~~you again~~")
//	}
//
// Errors (including recovered panics) are returned, never propagated.
func (g *GoInvoker) Run(ctx context.Context, source string, commands map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fable: script panic: %v", r)
		}
	}()

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("fable: script stdlib: %w", err)
	}

	exports := make(interp.Exports)
	symbols := make(map[string]reflect.Value, len(commands))
	for name, fn := range commands {
		symbols[name] = reflect.ValueOf(fn)
	}
	exports[scriptImportPath] = symbols
	if err := i.Use(exports); err != nil {
		return fmt.Errorf("fable: script namespace: %w", err)
	}

	if _, err := i.Eval(`import . "fable"`); err != nil {
		return fmt.Errorf("fable: script prelude: %w", err)
	}
	if _, err := i.EvalWithContext(ctx, source); err != nil {
		return fmt.Errorf("fable: script: %w", err)
	}
	return nil
}
