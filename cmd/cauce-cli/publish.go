package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newPublishCommand() *cobra.Command {
	var (
		topic    string
		payload  string
		metadata []string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a signal to a topic",
		Long: `Publish a signal to a topic. The payload should be valid JSON.
If no payload is provided, an empty signal will be published.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(topic, payload, metadata)
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Topic to publish to (required)")
	cmd.Flags().StringVar(&payload, "payload", "{}", "Signal payload as JSON")
	cmd.Flags().StringArrayVar(&metadata, "meta", nil, "Metadata entry as key=value (repeatable)")
	if err := cmd.MarkFlagRequired("topic"); err != nil {
		panic(fmt.Sprintf("Failed to mark topic as required: %v", err))
	}

	return cmd
}

func runPublish(topic, payloadStr string, metaPairs []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var payload interface{}
	if payloadStr != "" {
		if err := json.Unmarshal([]byte(payloadStr), &payload); err != nil {
			return fmt.Errorf("invalid JSON payload: %w", err)
		}
	}

	metadata, err := parseMetadata(metaPairs)
	if err != nil {
		return err
	}

	response, err := client.PublishWithMetadata(ctx, topic, payload, metadata)
	if err != nil {
		return fmt.Errorf("failed to publish signal: %w", err)
	}

	fmt.Printf("✅ Signal published!\n")
	fmt.Printf("Signal ID: %s\n", response.SignalID)
	fmt.Printf("Matched subscriptions: %d\n", response.Matched)
	fmt.Printf("Timestamp: %s\n", response.Timestamp.Format("2006-01-02 15:04:05"))

	return nil
}

func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		for i := 0; i < len(pair); i++ {
			if pair[i] == '=' {
				metadata[pair[:i]] = pair[i+1:]
				break
			}
			if i == len(pair)-1 {
				return nil, fmt.Errorf("invalid metadata entry %q, expected key=value", pair)
			}
		}
	}
	return metadata, nil
}
