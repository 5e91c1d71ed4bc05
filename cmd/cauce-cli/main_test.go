package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandConstruction(t *testing.T) {
	for _, cmd := range []struct {
		name string
		use  string
	}{
		{"publish", newPublishCommand().Use},
		{"subscribe", newSubscribeCommand().Use},
		{"subscriptions", newSubscriptionsCommand().Use},
		{"stream", newStreamCommand().Use},
		{"route <topic>", newRouteCommand().Use},
		{"match <topic> <pattern>", newMatchCommand().Use},
		{"health", newHealthCommand().Use},
	} {
		assert.Equal(t, cmd.name, cmd.use)
	}
}

func TestPublishCommand_RequiresTopic(t *testing.T) {
	cmd := newPublishCommand()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic")
}

func TestParseMetadata(t *testing.T) {
	metadata, err := parseMetadata([]string{"source=cli", "env=dev"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"source": "cli", "env": "dev"}, metadata)

	metadata, err = parseMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, metadata)

	_, err = parseMetadata([]string{"novalue"})
	assert.Error(t, err)

	metadata, err = parseMetadata([]string{"key=a=b"})
	require.NoError(t, err)
	assert.Equal(t, "a=b", metadata["key"])
}
