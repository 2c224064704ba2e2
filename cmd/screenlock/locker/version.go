package locker

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ubuntu/screenlock/internal/consts"
)

func (a *App) installVersion() {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Returns version of the lock screen and exits",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return getVersion(cmd) },
	}
	a.rootCmd.AddCommand(cmd)
}

// getVersion returns the current service version.
func getVersion(cmd *cobra.Command) (err error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", cmdName, consts.Version)
	return nil
}
