package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRouteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "route <topic>",
		Short: "Preview which subscriptions a topic routes to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			resp, err := client.Route(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to preview route: %w", err)
			}

			if len(resp.SubscriptionIDs) == 0 {
				fmt.Printf("Topic %q matches no subscriptions.\n", resp.Topic)
				return nil
			}
			fmt.Printf("Topic %q matches %d subscription(s):\n", resp.Topic, len(resp.SubscriptionIDs))
			for _, id := range resp.SubscriptionIDs {
				fmt.Printf("  %s\n", id)
			}
			return nil
		},
	}
}
