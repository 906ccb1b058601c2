package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var signResponseURL string

// signCmd represents the sign command
var signCmd = &cobra.Command{
	Use:   "sign [command text...]",
	Short: "Print the signed form body and headers without sending",
	Long: `Compute the form body, timestamp and signature headers for a slash
command without sending anything. Useful for driving curl or debugging a
verification failure.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if secret == "" {
			return fmt.Errorf("no signing secret: pass --secret or set SLACK_SIGNING_SECRET")
		}

		body, ts, sig := signedForm(strings.Join(args, " "), signResponseURL)
		fmt.Printf("body: %s\n", body)
		fmt.Printf("X-Request-Timestamp: %s\n", ts)
		fmt.Printf("X-Signature: %s\n", sig)
		return nil
	},
}

func init() {
	signCmd.Flags().StringVar(&signResponseURL, "response-url", "", "callback URL to include in the form body")
	rootCmd.AddCommand(signCmd)
}
