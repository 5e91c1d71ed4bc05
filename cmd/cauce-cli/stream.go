package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cauce-ai/cauce-go/pkg/hubclient"
)

func newStreamCommand() *cobra.Command {
	var patterns []string

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream signals in real time",
		Long: `Open an SSE stream and print every signal matched by this client's
subscriptions. With --pattern, a subscription is created first; it is
removed when the stream ends.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStream(patterns)
		},
	}

	cmd.Flags().StringArrayVar(&patterns, "pattern", nil, "Subscribe to this pattern before streaming (repeatable)")
	return cmd
}

func runStream(patterns []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := client.Stream(ctx, hubclient.StreamConfig{})
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer stream.Close()

	if len(patterns) > 0 {
		// Give the stream a moment to register the connection so the
		// subscription has a live channel to deliver into.
		time.Sleep(200 * time.Millisecond)

		subCtx, subCancel := context.WithTimeout(ctx, timeout)
		sub, err := client.Subscribe(subCtx, patterns, 0)
		subCancel()
		if err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}
		fmt.Printf("Subscribed as %s\n", sub.ID)
	}

	fmt.Println("Streaming signals (Ctrl+C to stop)...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigChan:
			fmt.Println("\nStopping stream.")
			return nil

		case msg, open := <-stream.Signals():
			if !open {
				return nil
			}
			fmt.Printf("[%s] %s %s", msg.Timestamp.Format("15:04:05"), msg.SignalID, msg.Topic)
			if len(msg.Payload) > 0 {
				fmt.Printf(" %s", msg.Payload)
			}
			fmt.Println()

		case err, open := <-stream.Errors():
			if !open {
				return nil
			}
			fmt.Fprintf(os.Stderr, "stream error: %v\n", err)
		}
	}
}
