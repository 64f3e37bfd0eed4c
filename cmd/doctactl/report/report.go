package reportcmder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/mydocta/docta/pkg/chat"
)

const reportLongDesc string = `Render the report extracted from the latest model reply.

The report body is markdown (typically a bulleted summary) and is
rendered for the terminal. Exits with an error when no report has
been extracted yet.

Examples:
  doctactl report
  doctactl report --server http://192.168.1.42:8080`

const reportShortDesc string = "Render the latest session report"

type reportCommander struct {
	serverURL string
}

func NewReportCmd() *cobra.Command {
	cmder := &reportCommander{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: reportShortDesc,
		Long:  reportLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.serverURL, "server", "s", "http://localhost:8080", "Gateway base URL")

	return cmd
}

func (c *reportCommander) run(cmd *cobra.Command) error {
	serverURL := strings.TrimRight(c.serverURL, "/")

	resp, err := http.Get(serverURL + "/api/report")
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.New("no report available; the session has not produced one yet")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var report chat.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}

	rendered, err := glamour.Render(report.Body, "dark")
	if err != nil {
		// Fall back to the raw body rather than failing the command.
		fmt.Fprintln(cmd.OutOrStdout(), report.Body)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), rendered)

	return nil
}
