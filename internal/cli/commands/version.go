package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display sqltype version and build information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info.GoVersion = runtime.Version()
			cc := NewCommandContext(cmd)
			if ok, err := cc.Renderer.Structured(info); ok {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sqltype v%s\n", info.Version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "commit %s, built %s with %s\n", info.Commit, info.BuildDate, info.GoVersion)
			return nil
		},
	}
}
