package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newSubscribeCommand() *cobra.Command {
	var (
		patterns []string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Create a pattern subscription",
		Long: `Create a subscription for one or more topic patterns.
Patterns may use "*" for exactly one segment and "**" for one or more,
for example "signal.email.*" or "signal.**".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubscribe(patterns, ttl)
		},
	}

	cmd.Flags().StringArrayVar(&patterns, "pattern", nil, "Topic pattern to subscribe to (repeatable, required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Subscription lifetime, e.g. 1h (0 = server default)")
	if err := cmd.MarkFlagRequired("pattern"); err != nil {
		panic(fmt.Sprintf("Failed to mark pattern as required: %v", err))
	}

	return cmd
}

func runSubscribe(patterns []string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sub, err := client.Subscribe(ctx, patterns, ttl)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	fmt.Printf("✅ Subscription created!\n")
	fmt.Printf("Subscription ID: %s\n", sub.ID)
	fmt.Printf("Client ID: %s\n", sub.ClientID)
	fmt.Printf("Patterns: %s\n", strings.Join(sub.Patterns, ", "))
	if sub.ExpiresAt != nil {
		fmt.Printf("Expires: %s\n", sub.ExpiresAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}
