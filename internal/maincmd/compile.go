package maincmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/mna/waspc/lang/ast"
	"github.com/mna/waspc/lang/compiler"
)

// Compile reads the JSON application AST at args[0] and writes the
// compiled module's bytes to Output (stdout if unset).
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	out, err := compileFile(args[0])
	if err != nil {
		return err
	}

	if c.Output == "" || c.Output == "-" {
		_, err = stdio.Stdout.Write(out)
		return err
	}
	return os.WriteFile(c.Output, out, 0o644)
}

func compileFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var app ast.App
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	out, err := compiler.CompileApp(&app)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return out, nil
}
