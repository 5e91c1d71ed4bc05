package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cauce-ai/cauce-go/pkg/topic"
)

func newMatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "match <topic> <pattern>",
		Short: "Check locally whether a topic matches a pattern",
		Long: `Check whether a topic matches a pattern without contacting a hub.
Exits 0 on a match, 1 otherwise.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := topic.MatchStrings(args[0], args[1])
			if err != nil {
				return err
			}
			if ok {
				fmt.Printf("✅ %q matches %q\n", args[0], args[1])
				return nil
			}
			fmt.Printf("❌ %q does not match %q\n", args[0], args[1])
			// Non-zero exit without the usage banner.
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return fmt.Errorf("no match")
		},
	}
}
