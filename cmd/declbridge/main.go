package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagManifest string
	flagVerbose  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "declbridge",
	Short:         "Convert structural declaration trees for a nominal host language",
	Long:          "declbridge flattens, resolves, expands and cycle-breaks parsed declaration libraries, producing one addressed declaration tree per library.",
	SilenceErrors: true,
	SilenceUsage:  true,
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagManifest, "manifest", "", "project manifest path (default: declbridge.yaml if present)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "development logging")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(exportsCmd)
}

func buildLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
)

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// colorize wraps s in ANSI color when out is a terminal. The gate checks the
// stream being written, not stdout: diagnostics go to stderr, and the two may
// be redirected independently.
func colorize(s, color string, out *os.File) string {
	if !isTerminal(out) {
		return s
	}
	return color + s + ansiReset
}
