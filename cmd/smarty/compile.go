package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/basalt-tpl/smarty/internal/template"
	"github.com/spf13/cobra"
)

func newCompileCommand() *cobra.Command {
	var output string
	var pkg string
	var build bool

	cmd := &cobra.Command{
		Use:   "compile <template>",
		Short: "Emit the portable Go source back end for a template",
		Long:  `Compiles a template to a self-contained Go source file exposing ShowTemplate and Personalized. With --build, additionally invokes "go build -buildmode=plugin" to produce a loadable .so.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(args[0], output, pkg, build)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output .go file path (defaults to <template>.go)")
	cmd.Flags().StringVar(&pkg, "package", "main","Package name for the generated file")
	cmd.Flags().BoolVar(&build, "build", false, "Also build the generated source as a Go plugin (.so)")

	return cmd
}

func runCompile(path, output, pkg string, build bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading template %s: %w", path, err)
	}

	tpl, err := template.Parse(path, string(source))
	if err != nil {
		return err
	}

	src := tpl.Compile(pkg)

	if output == "" {
		output = strings.TrimSuffix(path, ".tpl") + ".go"
	}
	if err := os.WriteFile(output, []byte(src), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	if !build {
		return nil
	}

	// This shells out to the Go toolchain's own plugin build mode at
	// the CLI user's runtime request; it does not run inside the
	// compiler/runtime packages themselves.
	soPath := strings.TrimSuffix(output, ".go") + ".so"
	buildCmd := exec.Command("go", "build", "-buildmode=plugin", "-o", soPath, output)
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		return fmt.Errorf("building plugin %s: %w", soPath, err)
	}
	return nil
}
