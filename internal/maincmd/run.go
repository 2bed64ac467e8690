package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/tetratelabs/wazero"
)

// Run compiles the JSON application AST at args[0] and executes its
// exported Entry function (default "main"), printing the resulting
// scalar. Execution is not part of the compiler itself - the module this
// package builds doesn't depend on wazero at all - it exists purely so
// this CLI can observe a compiled module's real behavior instead of just
// inspecting its bytes.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	mod, err := compileFile(args[0])
	if err != nil {
		return err
	}

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, mod)
	if err != nil {
		return fmt.Errorf("load compiled module: %w", err)
	}

	instance, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		return fmt.Errorf("instantiate compiled module: %w", err)
	}

	fn := instance.ExportedFunction(c.Entry)
	if fn == nil {
		return fmt.Errorf("no exported function named %q", c.Entry)
	}

	results, err := fn.Call(ctx)
	if err != nil {
		return fmt.Errorf("run %s: %w", c.Entry, err)
	}
	if len(results) != 1 {
		return fmt.Errorf("%s returned %d results, expected 1", c.Entry, len(results))
	}

	fmt.Fprintf(stdio.Stdout, "%v\n", api64ToFloat(results[0]))
	return nil
}
