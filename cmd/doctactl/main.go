// doctactl is a small client for a running MyDocta gateway.
package main

import (
	"os"

	"github.com/spf13/cobra"

	historycmder "github.com/mydocta/docta/cmd/doctactl/history"
	reportcmder "github.com/mydocta/docta/cmd/doctactl/report"
	resetcmder "github.com/mydocta/docta/cmd/doctactl/reset"
)

func main() {
	root := &cobra.Command{
		Use:   "doctactl",
		Short: "Inspect and manage a running MyDocta gateway",
	}

	root.AddCommand(
		historycmder.NewHistoryCmd(),
		reportcmder.NewReportCmd(),
		resetcmder.NewResetCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
