// Command validate-setup checks that a portfolio site directory is ready
// to deploy.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Zachkp/portfolio/internal/setupcheck"
)

var (
	dir     string
	layout  string
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "validate-setup",
	Short: "Check a portfolio site directory before deployment",
	Long: `validate-setup looks for the files, directories and configuration a
portfolio deployment needs and prints a checklist. It exits non-zero when a
required file or directory is missing.

--layout picks what a complete site looks like:
  static  HTML pages with css/ and js/ at the root, deployed to Vercel (default)
  server  this Go server: go.mod, main.go, templates/ and internal/`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}

		manifest, ok := setupcheck.Layouts[layout]
		if !ok {
			return fmt.Errorf("unknown layout %q (want static or server)", layout)
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.New(color.FgCyan).Sprint("\nPortfolio Deployment Validation"))
		report := setupcheck.Run(dir, manifest())
		setupcheck.Print(cmd.OutOrStdout(), report, !noColor && !color.NoColor)

		if code := report.ExitCode(); code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&dir, "dir", "d", ".", "site directory to check")
	rootCmd.Flags().StringVarP(&layout, "layout", "l", "static", "site layout to check: static or server")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
