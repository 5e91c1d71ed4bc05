package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show hub health and stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			health, err := client.Health(ctx)
			if err != nil {
				return fmt.Errorf("failed to get health status: %w", err)
			}

			status := "✅ Healthy"
			if !health.Healthy {
				status = "❌ Unhealthy"
			}
			fmt.Printf("Status: %s\n", status)
			fmt.Printf("Connected clients: %d\n", health.Stats.ConnectedClients)
			fmt.Printf("Subscriptions: %d\n", health.Stats.Subscriptions)
			fmt.Printf("Patterns: %d\n", health.Stats.Patterns)
			fmt.Printf("Published: %d\n", health.Stats.Published)
			fmt.Printf("Delivered: %d\n", health.Stats.Delivered)
			fmt.Printf("Dropped: %d\n", health.Stats.Dropped)
			return nil
		},
	}
}
