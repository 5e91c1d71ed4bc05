package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSubscriptionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "Manage subscriptions",
	}

	cmd.AddCommand(newSubscriptionsListCommand())
	cmd.AddCommand(newSubscriptionsDeleteCommand())
	return cmd
}

func newSubscriptionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List this client's subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			subs, err := client.Subscriptions(ctx)
			if err != nil {
				return fmt.Errorf("failed to list subscriptions: %w", err)
			}

			if len(subs) == 0 {
				fmt.Println("No subscriptions.")
				return nil
			}
			for _, sub := range subs {
				fmt.Printf("%s  %s", sub.ID, strings.Join(sub.Patterns, ", "))
				if sub.ExpiresAt != nil {
					fmt.Printf("  (expires %s)", sub.ExpiresAt.Format("2006-01-02 15:04:05"))
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func newSubscriptionsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <subscription-id>",
		Short: "Delete a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if err := client.Unsubscribe(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete subscription: %w", err)
			}
			fmt.Printf("✅ Subscription %s deleted\n", args[0])
			return nil
		},
	}
}
