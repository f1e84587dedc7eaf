package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/multisig/internal/output"
	"github.com/mrz1836/multisig/internal/version"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var versionCheck bool

// newVersionClient builds the release lookup client. Tests replace it.
//
//nolint:gochecknoglobals // swapped out in tests
var newVersionClient = func() *version.Client {
	return version.NewClient()
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}

type versionResult struct {
	version.BuildInfo
	Latest          string `json:"latest,omitempty"`
	UpdateAvailable bool   `json:"update_available,omitempty"`
	ReleaseURL      string `json:"release_url,omitempty"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	result := versionResult{BuildInfo: buildInfo}

	if versionCheck {
		ctx, cancel := contextWithTimeout(cmd, version.DefaultTimeout)
		defer cancel()

		rel, err := newVersionClient().LatestRelease(ctx, version.DefaultOwner, version.DefaultRepo)
		if err != nil {
			// Lookup failures are reported on stderr, not returned.
			cc.Logger().Error("release check: %v", err)
			output.Warnf(cmd.ErrOrStderr(), "could not check for updates: %v", err)
		} else {
			result.Latest = rel.TagName
			result.ReleaseURL = rel.HTMLURL
			result.UpdateAvailable = version.IsNewer(buildInfo.Version, rel.TagName)
		}
	}

	return cc.Formatter(cmd.OutOrStdout()).Emit(result, func(w io.Writer) error {
		outln(w, "multisig "+result.BuildInfo.String())
		switch {
		case result.UpdateAvailable:
			output.Infof(w, "a newer release is available: %s (%s)", result.Latest, result.ReleaseURL)
		case result.Latest != "":
			output.Success(w, "up to date")
		}
		return nil
	})
}
