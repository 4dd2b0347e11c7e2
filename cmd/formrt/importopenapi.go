package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formruntime/pkg/importer/openapi"
)

var (
	importOperation    string
	importOut          string
	importFormat       string
	importExternalRefs bool
	importStrict       bool
	importRemote       bool
)

var importOpenAPICmd = &cobra.Command{
	Use:   "import-openapi [openapi.yaml|openapi.json|URL|-]",
	Short: "Derive a form schema from an OpenAPI request body",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportOpenAPI,
}

func init() {
	f := importOpenAPICmd.Flags()
	f.StringVar(&importOperation, "operation", "", "operationId to convert (first operation with a body by default)")
	f.StringVarP(&importOut, "out", "o", "", "write to file instead of stdout")
	f.StringVar(&importFormat, "format", "json", "output format: json or yaml")
	f.BoolVar(&importExternalRefs, "external-refs", false, "allow $ref to other documents")
	f.BoolVar(&importStrict, "strict", false, "validate the OpenAPI document first")
	f.BoolVar(&importRemote, "remote", false, "allow http(s) document locations")
	rootCmd.AddCommand(importOpenAPICmd)
}

func runImportOpenAPI(cmd *cobra.Command, args []string) error {
	var raw []byte
	var err error
	if args[0] == "-" {
		raw, err = readInput(cmd, args[0])
	} else {
		var opts []openapi.FetchOption
		if importRemote {
			opts = append(opts, openapi.WithHTTPFallback(30*time.Second))
		}
		raw, err = openapi.Fetch(cmd.Context(), args[0], opts...)
	}
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	form, err := openapi.Import(cmd.Context(), raw,
		openapi.WithOperation(importOperation),
		openapi.WithExternalRefs(importExternalRefs),
		openapi.WithDocumentValidation(importStrict),
		openapi.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	var encoded []byte
	switch importFormat {
	case "json":
		encoded, err = json.MarshalIndent(form, "", "  ")
		encoded = append(encoded, '\n')
	case "yaml", "yml":
		encoded, err = yaml.Marshal(form)
	default:
		return fmt.Errorf("unknown format %q", importFormat)
	}
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}

	w, closeFn, err := output(cmd, importOut)
	if err != nil {
		return err
	}
	if _, err := w.Write(encoded); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}
