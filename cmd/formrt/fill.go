package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formruntime/pkg/connectors/csvexport"
	"github.com/goliatone/go-formruntime/pkg/connectors/webhook"
	"github.com/goliatone/go-formruntime/pkg/host/tui"
	"github.com/goliatone/go-formruntime/pkg/runtime"
	"github.com/goliatone/go-formruntime/pkg/submission"
)

var (
	fillData          string
	fillWebhook       string
	fillMethod        string
	fillHeaders       []string
	fillAttempts      int
	fillCSV           string
	fillCSVMode       string
	fillTimeout       time.Duration
	fillRetries       int
	fillSubmitTimeout time.Duration
)

var fillCmd = &cobra.Command{
	Use:   "fill [schema.json|schema.yaml]",
	Short: "Fill a form interactively and submit it",
	Long: `Prompts for every visible field, validates as you go and submits the result.

Submissions go to a webhook (--webhook), a CSV file (--csv) or, by default,
are printed to stdout as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runFill,
}

func init() {
	f := fillCmd.Flags()
	f.StringVar(&fillData, "data", "", "JSON or YAML file with initial values")
	f.StringVar(&fillWebhook, "webhook", "", "submit to this URL")
	f.StringVar(&fillMethod, "method", "POST", "webhook HTTP method")
	f.StringArrayVarP(&fillHeaders, "header", "H", nil, "webhook header as key=value (repeatable)")
	f.IntVar(&fillAttempts, "attempts", 3, "webhook attempts")
	f.DurationVar(&fillTimeout, "timeout", 30*time.Second, "webhook per-attempt timeout")
	f.StringVar(&fillCSV, "csv", "", "append the submission to a CSV file")
	f.StringVar(&fillCSVMode, "csv-mode", string(csvexport.Flatten), "repeatable section layout: flatten or separate")
	f.IntVar(&fillRetries, "retries", 3, "failed submissions the user may retry")
	f.DurationVar(&fillSubmitTimeout, "submit-timeout", 0, "bound on each submission call (0 for none)")
	rootCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, args []string) error {
	if args[0] == "-" {
		return fmt.Errorf("fill reads answers from stdin; pass the schema as a file")
	}
	form, err := loadSchema(cmd, args[0])
	if err != nil {
		return err
	}
	data, err := loadData(cmd, fillData)
	if err != nil {
		return err
	}

	submitter, closeFn, err := fillSubmitter(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	rt, err := mountRuntime(form, runtime.Config{OnSubmit: submitter}, data, runtime.WithSubmitTimeout(fillSubmitTimeout))
	if err != nil {
		return err
	}
	defer rt.Destroy()

	session := tui.New(rt,
		tui.WithDriver(tui.NewSurveyDriver(cmd.OutOrStdout())),
		tui.WithLogger(logger),
		tui.WithMaxRetries(fillRetries),
	)
	res, err := session.Run(cmd.Context())
	if err != nil {
		return err
	}
	logger.Debug("fill finished", zap.String("result", submission.Describe(res)))
	return nil
}

func fillSubmitter(cmd *cobra.Command) (submission.Submitter, func() error, error) {
	noop := func() error { return nil }
	switch {
	case fillWebhook != "" && fillCSV != "":
		return nil, noop, fmt.Errorf("--webhook and --csv are mutually exclusive")
	case fillWebhook != "":
		opts := []webhook.Option{
			webhook.WithMethod(fillMethod),
			webhook.WithRetry(fillAttempts, time.Second),
			webhook.WithTimeout(fillTimeout),
			webhook.WithLogger(logger),
		}
		for _, header := range fillHeaders {
			key, value, ok := strings.Cut(header, "=")
			if !ok || strings.TrimSpace(key) == "" {
				return nil, noop, fmt.Errorf("invalid header %q, want key=value", header)
			}
			opts = append(opts, webhook.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value)))
		}
		return webhook.New(fillWebhook, opts...), noop, nil
	case fillCSV != "":
		mode := csvexport.Mode(fillCSVMode)
		if mode != csvexport.Flatten && mode != csvexport.Separate {
			return nil, noop, fmt.Errorf("unknown csv mode %q", fillCSVMode)
		}
		w, closeFn, err := output(cmd, fillCSV)
		if err != nil {
			return nil, noop, err
		}
		return csvexport.New(w, csvexport.WithMode(mode), csvexport.WithSubmissionID()), closeFn, nil
	default:
		return printSubmitter(cmd.OutOrStdout()), noop, nil
	}
}

// printSubmitter writes the submission as indented JSON.
func printSubmitter(w io.Writer) submission.Submitter {
	return submission.Func(func(_ context.Context, data map[string]any) (submission.Result, error) {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return submission.Result{}, fmt.Errorf("encode submission: %w", err)
		}
		return submission.Result{Success: true}, nil
	})
}
