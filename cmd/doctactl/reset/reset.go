package resetcmder

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

const resetLongDesc string = `Start a new session on a running gateway.

Clears the stored conversation and discards any extracted report.

Examples:
  doctactl reset
  doctactl reset --server http://192.168.1.42:8080`

const resetShortDesc string = "Clear the conversation and report"

type resetCommander struct {
	serverURL string
}

func NewResetCmd() *cobra.Command {
	cmder := &resetCommander{}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: resetShortDesc,
		Long:  resetLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.serverURL, "server", "s", "http://localhost:8080", "Gateway base URL")

	return cmd
}

func (c *resetCommander) run(cmd *cobra.Command) error {
	serverURL := strings.TrimRight(c.serverURL, "/")

	resp, err := http.Post(serverURL+"/api/session/reset", "application/json", nil)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Session cleared.")

	return nil
}
