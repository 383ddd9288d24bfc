package main

import (
	"fmt"
	"os"

	"github.com/basalt-tpl/smarty/cmd/smarty/internal/config"
	"github.com/basalt-tpl/smarty/cmd/smarty/internal/dataload"
	"github.com/basalt-tpl/smarty/internal/template"
	"github.com/spf13/cobra"
)

func newRenderCommand() *cobra.Command {
	var dataPath string
	var encoding string

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template to stdout",
		Long:  `Parses, compiles (interpreter back end) and executes a template against optional data, printing the result to stdout.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args[0], dataPath, encoding)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Path to a YAML or JSON data file")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Output escaper: html, css, js, url, raw (default from smarty.yaml)")

	return cmd
}

func runRender(path, dataPath, encoding string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading smarty.yaml: %w", err)
	}
	if encoding == "" {
		encoding = cfg.Escaper
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading template %s: %w", path, err)
	}

	tpl, err := template.Parse(path, string(source))
	if err != nil {
		return err
	}

	d, err := dataload.FromFile(dataPath)
	if err != nil {
		return err
	}

	out, err := tpl.Process(d, encoding)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, out)
	return nil
}
