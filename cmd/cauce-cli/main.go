package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cauce-ai/cauce-go/pkg/hubclient"
)

var (
	// Global flags
	serverURL string
	clientID  string
	timeout   time.Duration

	// Global client instance
	client *hubclient.Client
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cauce-cli",
		Short: "Command line interface for the cauce hub",
		Long: `cauce-cli talks to a cauce hub over its HTTP API.
It provides commands for publishing signals, managing pattern
subscriptions, previewing routes and streaming signals in real time.`,
		PersistentPreRunE: initializeClient,
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Hub server URL")
	rootCmd.PersistentFlags().StringVar(&clientID, "client-id", "cauce-cli", "Client ID for subscriptions and streaming")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	rootCmd.AddCommand(newPublishCommand())
	rootCmd.AddCommand(newSubscribeCommand())
	rootCmd.AddCommand(newSubscriptionsCommand())
	rootCmd.AddCommand(newStreamCommand())
	rootCmd.AddCommand(newRouteCommand())
	rootCmd.AddCommand(newMatchCommand())
	rootCmd.AddCommand(newHealthCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initializeClient sets up the HTTP client with global configuration
func initializeClient(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Parent() == nil {
		return nil
	}
	// match is a local computation; no server needed.
	if cmd.Name() == "match" {
		return nil
	}

	var err error
	client, err = hubclient.NewClient(hubclient.Config{
		ServerURL: serverURL,
		ClientID:  clientID,
		Timeout:   timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}
