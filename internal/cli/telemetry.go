package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/errors"
	"github.com/mrz1836/adopt/internal/plan"
)

// addTelemetryCommand adds the telemetry command group.
func addTelemetryCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Import telemetry values into adoption plans",
	}
	addTelemetryImportCmd(cmd, flags)
	root.AddCommand(cmd)
}

func addTelemetryImportCmd(parent *cobra.Command, flags *GlobalFlags) {
	var (
		batchID string
		source  string
	)

	cmd := &cobra.Command{
		Use:   "import <plan-id> <file>",
		Short: "Apply a telemetry batch to a plan",
		Long: `Apply a batch of telemetry values to a plan. Each row names a task
(by id, template id, or name), an attribute (by id, definition id, or name),
and a raw value. Values are checked against the attribute's success criteria
and tasks whose criteria are all met are completed automatically, unless a
person has already set their status.

Rows that fail are reported and skipped; the rest of the batch is applied.
Use "-" to read the batch from stdin.

Batch file (YAML or JSON):
  batch_id: 2026-03-weekly
  rows:
    - task: Configure SSO
      attribute: sso_enabled
      value: true
    - task: Enroll users
      attribute: enrolled_users
      value: 120

Examples:
  adopt telemetry import 6f1c2d3e-... batch.yaml
  cat batch.json | adopt telemetry import 6f1c2d3e-... -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			batch, err := readTelemetryBatch(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			if batchID != "" {
				batch.ID = batchID
			}
			if source != "" {
				batch.Source = constants.UpdateSource(source)
			}

			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				result, err := a.service.ImportTelemetry(ctx, args[0], *batch)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.out.JSON(result)
				}
				renderImportResult(a.w, result)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&batchID, "batch-id", "", "batch id recorded on every value (overrides the file)")
	cmd.Flags().StringVar(&source, "source", "", "source recorded on every value (default TELEMETRY)")
	parent.AddCommand(cmd)
}

// readTelemetryBatch decodes a batch file. JSON is read with the YAML
// decoder so unquoted numbers and booleans land in the string value field.
func readTelemetryBatch(stdin io.Reader, path string) (*plan.TelemetryBatch, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // Path is a user-supplied batch file
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read telemetry batch: %w", err)
	}

	var batch plan.TelemetryBatch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, errors.NewExitCode2Error(fmt.Errorf("%w: telemetry batch %s: %w", errors.ErrInvalidArgument, path, err))
	}
	if len(batch.Rows) == 0 {
		return nil, errors.NewExitCode2Error(fmt.Errorf("%w: telemetry batch %s has no rows", errors.ErrEmptyValue, path))
	}
	return &batch, nil
}
