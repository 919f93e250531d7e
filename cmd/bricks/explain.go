package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Zer0-/polymer-bricks/internal/errors"
)

func explainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Describe bricks error codes",
		Long: `List every error code bricks reports, or describe one of them.

Examples:
  bricks explain
  bricks explain E202`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				listCodes(cmd.OutOrStdout())
				return nil
			}
			return explainCode(cmd.OutOrStdout(), args[0])
		},
	}
}

func listCodes(w io.Writer) {
	for _, code := range errors.GetAllCodes() {
		t, _ := errors.GetTemplate(code)
		fmt.Fprintf(w, "  %s  %-8s %s\n", code, t.Category, t.Message)
	}
}

func explainCode(w io.Writer, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	t, ok := errors.GetTemplate(code)
	if !ok {
		return fmt.Errorf("unknown error code %q (run 'bricks explain' for the list)", code)
	}
	fmt.Fprintf(w, "\n  %s: %s\n", code, t.Message)
	fmt.Fprintf(w, "  Category: %s\n", t.Category)
	if t.Detail != "" {
		fmt.Fprintf(w, "\n  %s\n", t.Detail)
	}
	fmt.Fprintln(w)
	return nil
}
