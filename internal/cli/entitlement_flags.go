package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/adopt/internal/constants"
	"github.com/mrz1836/adopt/internal/domain"
	"github.com/mrz1836/adopt/internal/errors"
)

// entitlementFlags are the --license, --outcomes, and --releases flags
// shared by the create and entitlements commands.
type entitlementFlags struct {
	license  string
	outcomes string
	releases string
}

func addEntitlementFlags(cmd *cobra.Command, f *entitlementFlags) {
	cmd.Flags().StringVar(&f.license, "license", string(constants.LicenseEssential), "license level (ESSENTIAL|ADVANTAGE|SIGNATURE)")
	cmd.Flags().StringVar(&f.outcomes, "outcomes", "ALL", "entitled outcome ids, comma separated, or ALL")
	cmd.Flags().StringVar(&f.releases, "releases", "ALL", "entitled release ids, comma separated, or ALL")
}

func (f *entitlementFlags) entitlement() (domain.Entitlement, error) {
	level, ok := constants.ParseLicenseLevel(f.license)
	if !ok {
		return domain.Entitlement{}, errors.NewExitCode2Error(
			fmt.Errorf("%w: %q", errors.ErrInvalidLicenseLevel, f.license))
	}
	return domain.Entitlement{
		LicenseLevel: level,
		Outcomes:     domain.ParseSelection(f.outcomes),
		Releases:     domain.ParseSelection(f.releases),
	}, nil
}
