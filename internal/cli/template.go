package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mrz1836/adopt/internal/config"
	"github.com/mrz1836/adopt/internal/domain"
	"github.com/mrz1836/adopt/internal/template"
	"github.com/mrz1836/adopt/internal/tui"
)

// addTemplateCommand adds the template command group.
func addTemplateCommand(root *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates"},
		Short:   "Check, list, and publish the template catalog",
	}
	addTemplateCheckCmd(cmd, flags)
	addTemplateListCmd(cmd, flags)
	addTemplatePublishCmd(cmd, flags)
	root.AddCommand(cmd)
}

// catalogReport is the result of checking a catalog file.
type catalogReport struct {
	Path      string           `json:"path"`
	Products  int              `json:"products"`
	Solutions int              `json:"solutions"`
	Warnings  []domain.Warning `json:"warnings,omitempty"`
}

func addTemplateCheckCmd(parent *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a catalog file",
		Long: `Validate a catalog file without publishing it. Every problem is
reported at once. Weight totals other than 100 are warnings, not errors.

Examples:
  adopt template check                 # the configured catalog
  adopt template check ./catalog.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := tui.NewOutput(cmd.OutOrStdout(), flags.Output)

			path, err := catalogArg(cmd.Context(), flags, args)
			if err != nil {
				return err
			}

			catalog, err := template.NewLoader("").LoadFromFile(path)
			if err != nil {
				if flags.Output == OutputJSON {
					out.Error(err)
					return jsonReported(err)
				}
				return err
			}

			report := catalogReport{
				Path:      path,
				Products:  len(catalog.Products),
				Solutions: len(catalog.Solutions),
				Warnings:  template.Warnings(catalog),
			}
			if flags.Output == OutputJSON {
				return out.JSON(report)
			}
			out.Success(fmt.Sprintf("%s is valid: %d products, %d solutions", path, report.Products, report.Solutions))
			renderWarnings(cmd.OutOrStdout(), report.Warnings)
			return nil
		},
	}
	parent.AddCommand(cmd)
}

// catalogArg returns the file argument or the configured catalog path.
func catalogArg(ctx context.Context, flags *GlobalFlags, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadWithOverrides(GetLogger().WithContext(ctx), flagOverrides(flags))
	if err != nil {
		return "", err
	}
	return cfg.CatalogPath()
}

func addTemplateListCmd(parent *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the published products and solutions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, flags, func(_ context.Context, a *app) error {
				products := a.registry.Products()
				solutions := a.registry.Solutions()

				if a.jsonOutput() {
					return a.out.JSON(template.Catalog{
						Products:  derefAll(products),
						Solutions: derefAll(solutions),
					})
				}
				if len(products) == 0 {
					a.out.Info("No templates published. Run 'adopt template publish <file>'.")
					return nil
				}

				styles := tui.NewTableStyles()
				writeLine(a.w, "%s", styles.Header.Render(fmt.Sprintf("%-*s %-*s %5s %7s", sourceWidth, "PRODUCT", nameWidth, "NAME", "TASKS", "WEIGHT")))
				for _, p := range products {
					writeLine(a.w, "%-*s %-*s %5d %7.1f", sourceWidth, tui.Truncate(p.ID, sourceWidth),
						nameWidth, tui.Truncate(p.Name, nameWidth), len(p.Tasks), p.TotalWeight())
				}
				if len(solutions) > 0 {
					writeLine(a.w, "")
					writeLine(a.w, "%s", styles.Header.Render(fmt.Sprintf("%-*s %-*s %s", sourceWidth, "SOLUTION", nameWidth, "NAME", "PRODUCTS")))
					for _, s := range solutions {
						writeLine(a.w, "%-*s %-*s %v", sourceWidth, tui.Truncate(s.ID, sourceWidth),
							nameWidth, tui.Truncate(s.Name, nameWidth), s.ProductIDs())
					}
				}
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

func addTemplatePublishCmd(parent *cobra.Command, flags *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "publish <file>",
		Short: "Publish a new catalog and flag affected plans",
		Long: `Validate a catalog file and make it the published catalog. Every plan
built from a product or solution whose template changed is flagged as
needing sync. Plans are not synced; run 'adopt plan sync --stale' or
'adopt solution sync' afterwards.

Examples:
  adopt template publish ./catalog.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, a *app) error {
				catalog, err := template.NewLoader("").LoadFromFile(args[0])
				if err != nil {
					return err
				}

				result, err := a.service.PublishCatalog(ctx, catalog)
				if err != nil {
					return err
				}
				if err := installCatalog(args[0], a.catalogPath); err != nil {
					return err
				}
				a.logger.Info().
					Str("source", args[0]).
					Str("catalog", a.catalogPath).
					Msg("catalog published")

				if a.jsonOutput() {
					return a.out.JSON(result)
				}
				a.out.Success("Published " + a.catalogPath)
				renderFlagResult(a.w, result)
				renderWarnings(a.w, template.Warnings(catalog))
				return nil
			})
		},
	}
	parent.AddCommand(cmd)
}

// installCatalog copies src over the configured catalog path with a
// temp file and rename. Publishing the configured file itself is a no-op.
func installCatalog(src, dst string) error {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	dstAbs, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	if srcAbs == dstAbs {
		return nil
	}

	data, err := os.ReadFile(srcAbs) //nolint:gosec // Path was loaded and validated above
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dstAbs), 0o750); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	tmp := dstAbs + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := os.Rename(tmp, dstAbs); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to install catalog: %w", err)
	}
	return nil
}

func derefAll[T any](items []*T) []T {
	result := make([]T, 0, len(items))
	for _, item := range items {
		result = append(result, *item)
	}
	return result
}
