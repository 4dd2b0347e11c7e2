package main

import (
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formruntime/pkg/schema"
)

var jsonschemaOut string

var jsonschemaCmd = &cobra.Command{
	Use:   "jsonschema",
	Short: "Print the JSON Schema describing form schema documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		doc, err := schema.GenerateJSONSchema()
		if err != nil {
			return err
		}
		w, closeFn, err := output(cmd, jsonschemaOut)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(doc, '\n')); err != nil {
			_ = closeFn()
			return err
		}
		return closeFn()
	},
}

func init() {
	jsonschemaCmd.Flags().StringVarP(&jsonschemaOut, "out", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(jsonschemaCmd)
}
