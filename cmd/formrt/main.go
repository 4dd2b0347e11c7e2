package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formruntime/pkg/dom"
	"github.com/goliatone/go-formruntime/pkg/runtime"
	"github.com/goliatone/go-formruntime/pkg/schema"
)

// Version is set at build time via ldflags.
var version = "dev"

var (
	verbose bool
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:               "formrt",
	Short:             "Declarative form runtime",
	Long:              "formrt validates form schemas, renders them to HTML and fills them from the terminal.",
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
	PersistentPostRun: func(*cobra.Command, []string) { _ = logger.Sync() },
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger(*cobra.Command, []string) error {
	if !verbose {
		return nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	built, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = built
	return nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func loadSchema(cmd *cobra.Command, path string) (*schema.FormSchema, error) {
	raw, err := readInput(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	src := schema.SourceFromFile(path)
	if path == "-" {
		src = schema.SourceInline("stdin")
	}
	return schema.ParseDocument(src, raw)
}

// loadData reads a JSON or YAML object of field values.
func loadData(cmd *cobra.Command, path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := readInput(cmd, path)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	var data map[string]any
	if json.Valid(bytes.TrimSpace(raw)) {
		err = json.Unmarshal(raw, &data)
	} else {
		err = yaml.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse data %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// mountRuntime builds and renders a runtime for form, preloading data.
func mountRuntime(form *schema.FormSchema, cfg runtime.Config, data map[string]any, opts ...runtime.Option) (*runtime.Runtime, error) {
	cfg.Schema = form
	if cfg.Container == nil {
		cfg.Container = dom.Element("div", "id", "form-root")
	}
	rt, err := runtime.New(cfg, append([]runtime.Option{runtime.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := rt.Render(); err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := rt.SetData(data); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// output returns stdout, or a created file when path is set.
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}
