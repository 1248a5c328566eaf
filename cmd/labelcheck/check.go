package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/labelcheck/pkg/report"
)

type checkFlags struct {
	file   string
	format string
	checks string
	failOn bool
}

func newCheckCmd(g *globals) *cobra.Command {
	var flags checkFlags
	cmd := &cobra.Command{
		Use:   `check ["ingredient, ingredient, ..."]...`,
		Short: "Check an ingredient list for allergens, GRAS status and NDI status",
		Example: `  labelcheck check "Water, Whey Protein, Sugar, Soy Lecithin"
  labelcheck check --checks ndi --file supplement.txt --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), g, args, flags, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.file, "file", "", `read the ingredient list from a file ("-" for stdin)`)
	f.StringVar(&flags.format, "format", "text", "output format: text or json")
	f.StringVar(&flags.checks, "checks", "", "comma-separated checks to run: allergen, gras, ndi (default all)")
	f.BoolVar(&flags.failOn, "fail-on-issues", false, "exit 2 when a GRAS issue or an unverified NDI ingredient is found")
	return cmd
}

func runCheck(ctx context.Context, g *globals, args []string, flags checkFlags, stdin io.Reader, out io.Writer) error {
	if flags.format != "text" && flags.format != "json" {
		return codeError(3, "invalid --format %q: want text or json", flags.format)
	}
	checks, err := report.ParseChecks(flags.checks)
	if err != nil {
		return codeError(3, "%s", err)
	}
	ings, err := readIngredients(args, flags.file, stdin)
	if err != nil {
		return codeError(3, "%s", err)
	}
	if len(ings) == 0 {
		return codeError(3, "no ingredients given")
	}

	a, err := newApp(ctx, g.cfg, g.logger)
	if err != nil {
		return codeError(1, "%s", err)
	}
	defer a.Close()

	b, err := a.checker.Run(ctx, ings, report.Options{Checks: checks})
	if err != nil {
		return codeError(3, "%s", err)
	}

	if flags.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(b); err != nil {
			return err
		}
	} else {
		writeText(out, b)
	}

	if flags.failOn && hasIssues(b) {
		return codeError(2, "compliance issues found")
	}
	return nil
}

// readIngredients splits every argument, or the file contents, as a label
// list. Lines count as separators in files.
func readIngredients(args []string, file string, stdin io.Reader) ([]string, error) {
	var ings []string
	for _, arg := range args {
		ings = append(ings, report.Split(arg)...)
	}
	if file == "" {
		return ings, nil
	}

	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("read ingredients: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		ings = append(ings, report.Split(line)...)
	}
	return ings, nil
}

func writeText(w io.Writer, b *report.Bundle) {
	fmt.Fprintf(w, "Run %s: %d ingredients\n\n", b.ID, len(b.Ingredients))
	if b.Allergens != nil {
		fmt.Fprintf(w, "Allergens: %s\n", b.Narratives.Allergens)
	}
	if b.GRAS != nil {
		fmt.Fprintf(w, "GRAS:      %s\n", b.Narratives.GRAS)
	}
	if b.NDI != nil {
		fmt.Fprintf(w, "NDI:       %s\n", b.Narratives.NDI)
	}
	if b.GRAS != nil {
		fmt.Fprintf(w, "\n%s\n", b.Narratives.GRASContext)
		for _, issue := range b.GRAS.CriticalIssues {
			fmt.Fprintf(w, "  - %s\n", issue)
		}
	}
	if b.NDI != nil {
		for _, r := range b.NDI.Results {
			if r.RequiresNDI {
				fmt.Fprintf(w, "  - %s\n", r.ComplianceNote)
			}
		}
	}
}

func hasIssues(b *report.Bundle) bool {
	if b.GRAS != nil && !b.GRAS.OverallCompliant {
		return true
	}
	return b.NDI != nil && b.NDI.Summary.RequiresNotification > 0
}
