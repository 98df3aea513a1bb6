package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/matchindex/pkg/catalog"
	"github.com/praetorian-inc/matchindex/pkg/types"
)

var (
	patternsPath    string
	patternsFormat  string
	patternsInclude string
	patternsExclude string
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage the pattern catalog",
	Long:  "Commands for listing and validating catalog patterns",
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available patterns",
	Long:  "Display catalog patterns with their IDs, names, engines and categories",
	RunE:  runPatternsList,
}

var patternsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate pattern definitions",
	Long: `Compile every definition, check it has a capturing group, and check that
each example produces an occurrence and each negative example none.`,
	RunE: runPatternsValidate,
}

func init() {
	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsValidateCmd)

	patternsCmd.PersistentFlags().StringVar(&patternsPath, "patterns", "", "Path to a pattern file or directory (default: builtin catalog)")
	patternsCmd.PersistentFlags().StringVar(&patternsInclude, "include", "", "Include patterns whose ID matches these expressions (comma-separated)")
	patternsCmd.PersistentFlags().StringVar(&patternsExclude, "exclude", "", "Exclude patterns whose ID matches these expressions (comma-separated)")
	patternsListCmd.Flags().StringVar(&patternsFormat, "format", "table", "Output format: table, json")
}

func runPatternsList(cmd *cobra.Command, args []string) error {
	defs, err := loadPatterns(patternsPath, patternsInclude, patternsExclude)
	if err != nil {
		return err
	}

	switch patternsFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(defs)
	case "table":
		return outputPatternsTable(cmd, defs)
	default:
		return fmt.Errorf("unknown output format: %s", patternsFormat)
	}
}

func runPatternsValidate(cmd *cobra.Command, args []string) error {
	defs, err := loadPatterns(patternsPath, patternsInclude, patternsExclude)
	if err != nil {
		return err
	}

	if err := catalog.Validate(defs); err != nil {
		return fmt.Errorf("validation failed:\n%w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "%d patterns valid\n", len(defs))
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// loadPatterns loads the builtin catalog or the file/directory at path and
// applies the include/exclude filters.
func loadPatterns(path, include, exclude string) ([]*types.PatternDef, error) {
	loader := catalog.NewLoader()

	var defs []*types.PatternDef
	var err error
	if path != "" {
		defs, err = loader.LoadPath(path)
	} else {
		defs, err = loader.LoadBuiltin()
	}
	if err != nil {
		return nil, err
	}

	if include != "" || exclude != "" {
		defs, err = catalog.Filter(defs, catalog.FilterConfig{
			Include: catalog.ParseList(include),
			Exclude: catalog.ParseList(exclude),
		})
		if err != nil {
			return nil, fmt.Errorf("filtering patterns: %w", err)
		}
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no patterns selected")
	}
	return defs, nil
}

func outputPatternsTable(cmd *cobra.Command, defs []*types.PatternDef) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tName\tEngine\tCategories\n")
	fmt.Fprintf(w, "--\t----\t------\t----------\n")

	for _, d := range defs {
		engine := d.Engine
		if engine == "" {
			engine = "re2"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Name, engine, strings.Join(d.Categories, ","))
	}
	return nil
}
