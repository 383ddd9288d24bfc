package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-preview"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "smarty",
		Short: "smarty - a template compiler and toolchain",
		Long: `smarty compiles a small template language to either an in-process
bytecode program or portable Go source, and provides render, compile,
watch and repl workflows around that compiler.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	}

	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newCompileCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newReplCommand())
	rootCmd.AddCommand(newCacheCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
