package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/adopt/internal/adoption"
	"github.com/mrz1836/adopt/internal/domain"
	"github.com/mrz1836/adopt/internal/errors"
	"github.com/mrz1836/adopt/internal/plan"
)

// addPlanCommand adds the plan command group.
func addPlanCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage product adoption plans",
		Long: `Create, inspect, sync, and delete adoption plans.

A plan is created from a product template for one customer assignment and
holds the tasks the assignment's entitlement selects.`,
	}

	addPlanCreateCmd(cmd, flags)
	addPlanShowCmd(cmd, flags)
	addPlanListCmd(cmd, flags)
	addPlanDeleteCmd(cmd, flags)
	addPlanSyncCmd(cmd, flags)
	addPlanEntitlementsCmd(cmd, flags)

	root.AddCommand(cmd)
}

func addPlanCreateCmd(parent *cobra.Command, flags *GlobalFlags) {
	var (
		customer     string
		product      string
		assignmentID string
		ent          entitlementFlags
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an adoption plan for a product assignment",
		Long: `Create an adoption plan from a product template.

Examples:
  adopt plan create --customer acme --product secure-access
  adopt plan create --customer acme --product secure-access --license SIGNATURE --outcomes faster-login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entitlement, err := ent.entitlement()
			if err != nil {
				return err
			}
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				p, err := a.service.CreatePlan(ctx, adoption.CreatePlanRequest{
					AssignmentID: assignmentID,
					CustomerID:   customer,
					ProductID:    product,
					Entitlement:  entitlement,
				})
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.out.JSON(p)
				}
				a.out.Success(fmt.Sprintf("Created plan %s with %d tasks", p.ID, p.Totals.TotalTasks))
				renderPlan(a.w, p)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&customer, "customer", "", "customer id")
	cmd.Flags().StringVar(&product, "product", "", "product template id")
	cmd.Flags().StringVar(&assignmentID, "assignment", "", "assignment id (generated when empty)")
	addEntitlementFlags(cmd, &ent)
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("product")

	parent.AddCommand(cmd)
}

func addPlanShowCmd(parent *cobra.Command, flags *GlobalFlags) {
	var assignmentID string

	cmd := &cobra.Command{
		Use:   "show [plan-id]",
		Short: "Show a plan and its tasks",
		Long: `Show a plan's entitlement, progress, and task table.

Examples:
  adopt plan show 6f1c2d3e-...
  adopt plan show --assignment asg-42
  adopt plan show 6f1c2d3e-... --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && assignmentID == "" {
				return errors.NewExitCode2Error(fmt.Errorf("%w: a plan id or --assignment is required", errors.ErrInvalidArgument))
			}
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				var (
					p   *domain.AdoptionPlan
					err error
				)
				if len(args) == 1 {
					p, err = a.service.GetPlan(ctx, args[0])
				} else {
					p, err = a.service.GetPlanByAssignment(ctx, assignmentID)
				}
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.out.JSON(p)
				}
				renderPlan(a.w, p)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&assignmentID, "assignment", "", "look the plan up by assignment id")
	parent.AddCommand(cmd)
}

func addPlanListCmd(parent *cobra.Command, flags *GlobalFlags) {
	var filter plan.ListFilter

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List adoption plans",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				plans, err := a.service.ListPlans(ctx, filter)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					if plans == nil {
						plans = []*domain.AdoptionPlan{}
					}
					return a.out.JSON(plans)
				}
				if len(plans) == 0 {
					a.out.Info("No plans. Run 'adopt plan create' to create one.")
					return nil
				}
				renderPlanList(a.w, plans)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter.CustomerID, "customer", "", "only plans for this customer")
	cmd.Flags().StringVar(&filter.SourceID, "product", "", "only plans for this product")
	parent.AddCommand(cmd)
}

func addPlanDeleteCmd(parent *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "delete <plan-id>",
		Short: "Delete a plan and its assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				if err := a.service.DeletePlan(ctx, args[0]); err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.out.JSON(map[string]any{"success": true, "plan_id": args[0]})
				}
				a.out.Success("Deleted plan " + args[0])
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

func addPlanSyncCmd(parent *cobra.Command, flags *GlobalFlags) {
	var stale bool

	cmd := &cobra.Command{
		Use:   "sync [plan-id]",
		Short: "Reconcile plans with their current templates",
		Long: `Reconcile a plan with its current product template and entitlement.

Tasks new to the template are added, changed tasks are updated in place
with their progress kept, and tasks that no longer apply are orphaned.

Examples:
  adopt plan sync 6f1c2d3e-...
  adopt plan sync --stale          # sync every plan flagged as needing sync`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == stale {
				return errors.NewExitCode2Error(fmt.Errorf("%w: pass either a plan id or --stale", errors.ErrInvalidArgument))
			}
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				ids := args
				if stale {
					var err error
					if ids, err = stalePlanIDs(ctx, a); err != nil {
						return err
					}
				}

				reports := make([]*plan.SyncReport, 0, len(ids))
				for _, id := range ids {
					report, err := a.service.SyncPlan(ctx, id)
					if err != nil {
						return err
					}
					reports = append(reports, report)
				}

				if a.jsonOutput() {
					if len(args) == 1 {
						return a.out.JSON(reports[0])
					}
					return a.out.JSON(reports)
				}
				if len(reports) == 0 {
					a.out.Info("No plans need sync.")
				}
				for _, r := range reports {
					renderSyncReport(a.w, r)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&stale, "stale", false, "sync every plan flagged as needing sync")
	parent.AddCommand(cmd)
}

// stalePlanIDs returns the ids of product plans with NeedsSync set.
func stalePlanIDs(ctx context.Context, a *app) ([]string, error) {
	plans, err := a.service.ListPlans(ctx, plan.ListFilter{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(plans))
	for _, p := range plans {
		if p.NeedsSync {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func addPlanEntitlementsCmd(parent *cobra.Command, flags *GlobalFlags) {
	var (
		ent  entitlementFlags
		sync bool
	)

	cmd := &cobra.Command{
		Use:   "entitlements <plan-id>",
		Short: "Change a plan's license level, outcomes, or releases",
		Long: `Replace a plan's entitlement. The plan is flagged as needing sync;
pass --sync to reconcile it right away.

Examples:
  adopt plan entitlements 6f1c2d3e-... --license SIGNATURE
  adopt plan entitlements 6f1c2d3e-... --outcomes faster-login,audit --sync`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entitlement, err := ent.entitlement()
			if err != nil {
				return err
			}
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				p, err := a.service.UpdateEntitlements(ctx, args[0], entitlement)
				if err != nil {
					return err
				}
				if sync {
					report, err := a.service.SyncPlan(ctx, p.ID)
					if err != nil {
						return err
					}
					if a.jsonOutput() {
						return a.out.JSON(report)
					}
					renderSyncReport(a.w, report)
					return nil
				}
				if a.jsonOutput() {
					return a.out.JSON(p)
				}
				a.out.Success("Updated entitlements of plan " + p.ID)
				renderPlanHeader(a.w, p)
				return nil
			})
		},
	}

	addEntitlementFlags(cmd, &ent)
	cmd.Flags().BoolVar(&sync, "sync", false, "sync the plan after updating")
	parent.AddCommand(cmd)
}
