package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/yieldengine/config"
	"github.com/YuminosukeSato/yieldengine/pkg/errors"
)

func newValidateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a model zoo config without running the search",
		Long: `Validate checks the config against its schema, builds every estimator and
preprocessing step, and verifies each parameter grid against the estimator's
declared parameters.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.OutOrStdout(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the model zoo config (YAML)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runValidate(w io.Writer, path string) error {
	const op = "yieldengine.validate"

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config %s", path)
	}
	if problems := config.Validate(data); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(w, "  ✗ %s\n", p) //nolint:errcheck
		}
		return errors.NewConfigurationError(op, "", -1,
			fmt.Sprintf("%s: %d schema violation(s)", path, len(problems)))
	}

	cfg, err := config.Parse(data)
	if err != nil {
		return err
	}
	zoo, err := cfg.Zoo()
	if err != nil {
		return err
	}
	if _, err := cfg.RankerOptions(); err != nil {
		return err
	}

	trials := 0
	names := make([]string, 0, zoo.Len())
	for _, m := range zoo.All() {
		trials += m.ParamGrid.Size()
		names = append(names, m.Name)
	}
	fmt.Fprintf(w, "✓ %s: %d model(s), %d configuration(s), %d-fold CV\n", //nolint:errcheck
		path, zoo.Len(), trials, cfg.CV.NSplits)
	if len(names) > 0 {
		fmt.Fprintf(w, "  models: %s\n", strings.Join(names, ", ")) //nolint:errcheck
	}
	return nil
}
