package cmd

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raizessolucoes/arco-relay/internal/signature"
)

var (
	cfgFile    string
	serverAddr string
	secret     string
	timeout    time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "relayctl - interact with the arco-relay service",
	Long: `relayctl is a command line tool for interacting with the arco-relay
order lookup service.

You can use it to send signed slash commands, compute signature headers for
debugging, and check service health.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.relayctl.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8080", "relay base URL")
	rootCmd.PersistentFlags().StringVar(&secret, "secret", "", "signing secret (overrides SLACK_SIGNING_SECRET)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("secret", rootCmd.PersistentFlags().Lookup("secret"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".relayctl")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	if !rootCmd.PersistentFlags().Changed("server") {
		if s := viper.GetString("server"); s != "" {
			serverAddr = s
		}
	}
	if !rootCmd.PersistentFlags().Changed("secret") {
		if s := viper.GetString("secret"); s != "" {
			secret = s
		} else if s := os.Getenv("SLACK_SIGNING_SECRET"); s != "" {
			secret = s
		}
	}
	if !rootCmd.PersistentFlags().Changed("timeout") {
		if d := viper.GetDuration("timeout"); d > 0 {
			timeout = d
		}
	}
}

// signedForm builds the form body for a slash command and its signature
// headers for the current secret and time.
func signedForm(text, responseURL string) (body, ts, sig string) {
	form := url.Values{}
	form.Set("text", text)
	if responseURL != "" {
		form.Set("response_url", responseURL)
	}
	body = form.Encode()
	ts = strconv.FormatInt(time.Now().Unix(), 10)
	sig = signature.Compute([]byte(secret), ts, []byte(body))
	return body, ts, sig
}

// postCommand sends a signed slash command to the relay and returns the
// synchronous response body.
func postCommand(text, responseURL string) (string, int, error) {
	body, ts, sig := signedForm(text, responseURL)

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(serverAddr, "/")+"/slack/consulta", strings.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-Timestamp", ts)
	req.Header.Set("X-Signature", sig)

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(b), resp.StatusCode, nil
}
