package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/adopt/internal/adoption"
	"github.com/mrz1836/adopt/internal/domain"
	"github.com/mrz1836/adopt/internal/plan"
)

// solutionView is the JSON form of a solution plan with its children.
type solutionView struct {
	*domain.SolutionAdoptionPlan

	Plans []*domain.AdoptionPlan `json:"plans"`
}

// addSolutionCommand adds the solution command group.
func addSolutionCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "solution",
		Short: "Manage solution adoption plans",
		Long: `A solution plan rolls up one product plan per product in a solution.
Product plans are created with the solution plan and share its entitlement.`,
	}

	addSolutionCreateCmd(cmd, flags)
	addSolutionShowCmd(cmd, flags)
	addSolutionListCmd(cmd, flags)
	addSolutionSyncCmd(cmd, flags)
	addSolutionEntitlementsCmd(cmd, flags)
	addSolutionDeleteCmd(cmd, flags)

	root.AddCommand(cmd)
}

func addSolutionCreateCmd(parent *cobra.Command, flags *GlobalFlags) {
	var (
		customer     string
		solution     string
		assignmentID string
		ent          entitlementFlags
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a solution plan and its product plans",
		Long: `Create a solution plan from a solution template.

Examples:
  adopt solution create --customer acme --solution zero-trust --license ADVANTAGE`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entitlement, err := ent.entitlement()
			if err != nil {
				return err
			}
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				sp, children, err := a.service.CreateSolutionPlan(ctx, adoption.CreateSolutionPlanRequest{
					AssignmentID: assignmentID,
					CustomerID:   customer,
					SolutionID:   solution,
					Entitlement:  entitlement,
				})
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.out.JSON(solutionView{SolutionAdoptionPlan: sp, Plans: children})
				}
				a.out.Success(fmt.Sprintf("Created solution plan %s with %d product plans", sp.ID, len(children)))
				renderSolution(a.w, sp, children)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&customer, "customer", "", "customer id")
	cmd.Flags().StringVar(&solution, "solution", "", "solution template id")
	cmd.Flags().StringVar(&assignmentID, "assignment", "", "assignment id (generated when empty)")
	addEntitlementFlags(cmd, &ent)
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("solution")

	parent.AddCommand(cmd)
}

func addSolutionShowCmd(parent *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "show <solution-plan-id>",
		Short: "Show a solution plan and its product plans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				sp, children, err := a.service.GetSolutionPlan(ctx, args[0])
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.out.JSON(solutionView{SolutionAdoptionPlan: sp, Plans: children})
				}
				renderSolution(a.w, sp, children)
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

func addSolutionListCmd(parent *cobra.Command, flags *GlobalFlags) {
	var filter plan.ListFilter

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List solution plans",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				sps, err := a.service.ListSolutionPlans(ctx, filter)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					if sps == nil {
						sps = []*domain.SolutionAdoptionPlan{}
					}
					return a.out.JSON(sps)
				}
				if len(sps) == 0 {
					a.out.Info("No solution plans. Run 'adopt solution create' to create one.")
					return nil
				}
				renderSolutionList(a.w, sps)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter.CustomerID, "customer", "", "only solution plans for this customer")
	cmd.Flags().StringVar(&filter.SourceID, "solution", "", "only solution plans for this solution")
	parent.AddCommand(cmd)
}

func addSolutionSyncCmd(parent *cobra.Command, flags *GlobalFlags) {
	var parallel int

	cmd := &cobra.Command{
		Use:   "sync <solution-plan-id>",
		Short: "Reconcile a solution plan and its product plans",
		Long: `Reconcile a solution plan with its current solution template.

Products new to the solution get a product plan, product weights are
refreshed, and every product plan still in the solution is synced.
Product plans whose product left the solution are kept as they are.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				svc := a.service
				if parallel > 0 {
					svc = a.newService(adoption.WithSyncParallelism(parallel))
				}

				report, err := svc.SyncSolutionPlan(ctx, args[0])
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.out.JSON(report)
				}
				renderSolutionSyncReport(a.w, report)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&parallel, "parallel", 0, "product plans synced at once (default 4)")
	parent.AddCommand(cmd)
}

func addSolutionEntitlementsCmd(parent *cobra.Command, flags *GlobalFlags) {
	var ent entitlementFlags

	cmd := &cobra.Command{
		Use:   "entitlements <solution-plan-id>",
		Short: "Change the entitlement of a solution plan and its product plans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entitlement, err := ent.entitlement()
			if err != nil {
				return err
			}
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				sp, err := a.service.UpdateSolutionEntitlements(ctx, args[0], entitlement)
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.out.JSON(sp)
				}
				a.out.Success("Updated entitlements of solution plan " + sp.ID)
				a.out.Info("Run 'adopt solution sync " + sp.ID + "' to apply them.")
				return nil
			})
		},
	}

	addEntitlementFlags(cmd, &ent)
	parent.AddCommand(cmd)
}

func addSolutionDeleteCmd(parent *cobra.Command, flags *GlobalFlags) {
	var cascade bool

	cmd := &cobra.Command{
		Use:   "delete <solution-plan-id>",
		Short: "Delete a solution plan",
		Long: `Delete a solution plan. Its product plans are kept as standalone plans
unless --cascade is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				if err := a.service.DeleteSolutionPlan(ctx, args[0], cascade); err != nil {
					return err
				}
				if a.jsonOutput() {
					return a.out.JSON(map[string]any{"success": true, "solution_plan_id": args[0], "cascade": cascade})
				}
				a.out.Success("Deleted solution plan " + args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&cascade, "cascade", false, "also delete the product plans")
	parent.AddCommand(cmd)
}
