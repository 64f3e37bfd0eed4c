package historycmder

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mydocta/docta/pkg/chat"
)

const historyLongDesc string = `Print the conversation stored on a running gateway.

Messages are shown in display order with sender labels. Media
attachments are noted but not rendered.

Examples:
  doctactl history
  doctactl history --server http://192.168.1.42:8080`

const historyShortDesc string = "Print the stored conversation"

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	metaStyle      = lipgloss.NewStyle().Faint(true)
)

type historyCommander struct {
	serverURL string
}

type historyResponse struct {
	Messages []chat.Message `json:"messages"`
	Count    int            `json:"count"`
}

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.serverURL, "server", "s", "http://localhost:8080", "Gateway base URL")

	return cmd
}

func (c *historyCommander) run(cmd *cobra.Command) error {
	serverURL := strings.TrimRight(c.serverURL, "/")

	resp, err := http.Get(serverURL + "/api/history")
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var history historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}

	if history.Count == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No conversation stored.")
		return nil
	}

	for _, msg := range history.Messages {
		label := assistantStyle.Render("MyDocta")
		if msg.Sender == chat.SenderUser {
			label = userStyle.Render("You")
		}
		if msg.Status == chat.StatusError {
			label = errorStyle.Render("MyDocta (error)")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
			label, metaStyle.Render(msg.Timestamp.Format("2006-01-02 15:04:05")))

		if msg.Text != "" {
			fmt.Fprintln(cmd.OutOrStdout(), msg.Text)
		}
		if msg.ImageData != "" {
			fmt.Fprintln(cmd.OutOrStdout(), metaStyle.Render("[image attached]"))
		}
		if msg.AudioData != "" {
			fmt.Fprintln(cmd.OutOrStdout(), metaStyle.Render("[audio attached]"))
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}
