package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/adopt/internal/adoption"
	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/errors"
)

// addTaskCommand adds the task command group.
func addTaskCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Work with the tasks of an adoption plan",
	}
	addTaskStatusCmd(cmd, flags)
	root.AddCommand(cmd)
}

func addTaskStatusCmd(parent *cobra.Command, flags *GlobalFlags) {
	var (
		note   string
		source string
	)

	cmd := &cobra.Command{
		Use:   "status <plan-id> <task-id> <status>",
		Short: "Set a task's status",
		Long: `Set the status of one task. Any status may move to any other; the
change is recorded with the acting principal (--actor or $USER).

Statuses: NOT_STARTED, IN_PROGRESS, DONE, NOT_APPLICABLE, NO_LONGER_USING.

Examples:
  adopt task status 6f1c... 9a2b... done --note "verified on call"
  adopt task status 6f1c... 9a2b... not-applicable --source IMPORT`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := constants.ParseTaskStatus(args[2])
			if !ok {
				return errors.NewExitCode2Error(fmt.Errorf("%w: %q", errors.ErrInvalidStatus, args[2]))
			}
			req := adoption.StatusRequest{
				Status: status,
				Source: constants.UpdateSource(strings.ToUpper(strings.TrimSpace(source))),
				Note:   note,
			}

			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				task, err := a.service.ChangeTaskStatus(ctx, args[0], args[1], req)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.out.JSON(task)
				}
				a.out.Success(fmt.Sprintf("%s is now %s", task.Name, task.Status))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "note recorded with the change")
	cmd.Flags().StringVar(&source, "source", string(constants.SourceManual), "update source (MANUAL|IMPORT|SYSTEM)")
	parent.AddCommand(cmd)
}
