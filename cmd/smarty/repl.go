package main

import (
	"fmt"
	"os"

	"github.com/basalt-tpl/smarty/cmd/smarty/internal/config"
	"github.com/basalt-tpl/smarty/cmd/smarty/internal/dataload"
	"github.com/basalt-tpl/smarty/cmd/smarty/internal/ui"
	"github.com/spf13/cobra"
)

func newReplCommand() *cobra.Command {
	var dataPath string
	var encoding string
	var seedPath string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactively edit and preview a template",
		Long:  `Opens a terminal UI with a template source editor on the left and its live rendered output on the right, re-rendering against a fixed data file as you type.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(seedPath, dataPath, encoding)
		},
	}

	cmd.Flags().StringVar(&dataPath, "data", "", "Path to a YAML or JSON data file")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Output escaper: html, css, js, url, raw (default from smarty.yaml)")
	cmd.Flags().StringVar(&seedPath, "seed", "", "Template file to preload into the editor")

	return cmd
}

func runRepl(seedPath, dataPath, encoding string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading smarty.yaml: %w", err)
	}
	if encoding == "" {
		encoding = cfg.Escaper
	}

	var seed string
	if seedPath != "" {
		raw, err := os.ReadFile(seedPath)
		if err != nil {
			return fmt.Errorf("reading seed template %s: %w", seedPath, err)
		}
		seed = string(raw)
	}

	d, err := dataload.FromFile(dataPath)
	if err != nil {
		return err
	}

	return ui.Run(seed, d, encoding)
}
