package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formruntime/pkg/schema"
	"github.com/goliatone/go-formruntime/pkg/validation"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate [schema.json|schema.yaml|-]",
	Short: "Validate a form schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args[0])
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	src := schema.SourceFromFile(args[0])
	if args[0] == "-" {
		src = schema.SourceInline("stdin")
	}
	result := validation.ValidateSchemaDocument(src, raw)

	if validateJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if !result.Valid {
			return fmt.Errorf("validation failed with %d issue(s)", len(result.Issues))
		}
		return nil
	}

	if !result.Valid {
		out := cmd.ErrOrStderr()
		fmt.Fprintf(out, "Validation failed: %d issue(s)\n\n", len(result.Issues))
		for i, issue := range result.Issues {
			fmt.Fprintf(out, "  %d. %s\n", i+1, issue.Message)
			if issue.Field != "" {
				fmt.Fprintf(out, "     at: %s\n", issue.Field)
			}
		}
		return fmt.Errorf("validation failed with %d issue(s)", len(result.Issues))
	}

	form, err := schema.ParseDocument(src, raw)
	if err != nil {
		return err
	}
	fields := len(form.InputFields())
	for _, section := range form.RepeatableSections {
		fields += len(section.Fields)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (%d pages, %d sections, %d fields)\n",
		form.FormID, len(form.Pages), len(form.RepeatableSections), fields)
	return nil
}
