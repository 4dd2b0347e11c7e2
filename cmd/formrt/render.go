package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formruntime/pkg/page"
	"github.com/goliatone/go-formruntime/pkg/runtime"
)

var (
	renderOut         string
	renderData        string
	renderTheme       string
	renderTemplateDir string
	renderTemplate    string
	renderLang        string
	renderFragment    bool
)

var renderCmd = &cobra.Command{
	Use:   "render [schema.json|schema.yaml|-]",
	Short: "Render a form schema to a standalone HTML page",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOut, "out", "o", "", "write to file instead of stdout")
	f.StringVar(&renderData, "data", "", "JSON or YAML file with initial values")
	f.StringVar(&renderTheme, "theme", "", "theme name (defaults to settings.theme)")
	f.StringVar(&renderTemplateDir, "template-dir", "", "directory with page template overrides")
	f.StringVar(&renderTemplate, "template", "", "page template name")
	f.StringVar(&renderLang, "lang", "", "document language")
	f.BoolVar(&renderFragment, "fragment", false, "emit only the form markup")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	form, err := loadSchema(cmd, args[0])
	if err != nil {
		return err
	}
	data, err := loadData(cmd, renderData)
	if err != nil {
		return err
	}
	rt, err := mountRuntime(form, runtime.Config{Theme: renderTheme}, data)
	if err != nil {
		return err
	}
	defer rt.Destroy()

	w, closeFn, err := output(cmd, renderOut)
	if err != nil {
		return err
	}
	if renderFragment {
		_, err = fmt.Fprintln(w, rt.HTML())
	} else {
		var writer *page.Writer
		writer, err = page.New(
			page.WithTemplateDir(renderTemplateDir),
			page.WithTemplate(renderTemplate),
			page.WithLang(renderLang),
		)
		if err == nil {
			err = writer.Write(w, page.FromRuntime(rt))
		}
	}
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	logger.Debug("form rendered", zap.String("form", form.FormID))
	return nil
}
