package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var queryResponseURL string

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [command text...]",
	Short: "Send a signed slash command to the relay",
	Long: `Send a signed slash command to the relay and print the synchronous
response. The asynchronous result goes to --response-url; point it at a
request bin or a local listener to see the final message.

Examples:
  relayctl query aging nave 2024 7 --response-url http://localhost:9000/cb
  relayctl query numero nave 2024 PED-1001 --response-url http://localhost:9000/cb`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if secret == "" {
			return fmt.Errorf("no signing secret: pass --secret or set SLACK_SIGNING_SECRET")
		}
		if queryResponseURL == "" {
			return fmt.Errorf("--response-url is required")
		}

		body, status, err := postCommand(strings.Join(args, " "), queryResponseURL)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		fmt.Printf("HTTP %d\n%s", status, body)
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryResponseURL, "response-url", "", "callback URL for the asynchronous result")
	rootCmd.AddCommand(queryCmd)
}
