package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestCommands_ValidateBeforeConnecting(t *testing.T) {
	saved := databaseURL
	databaseURL = ""
	t.Cleanup(func() { databaseURL = saved })

	tests := []struct {
		name string
		cmd  *cobra.Command
		args []string
		want string
	}{
		{"reconcile needs workspace", reconcileCmd(), nil, "--workspace is required"},
		{"run-due rejects bad date", runDueCmd(), []string{"--as-of", "31/03/2026"}, "invalid --as-of"},
		{"migrate needs database", migrateCmd(), nil, errNoDatabaseURL.Error()},
		{"reconcile needs database", reconcileCmd(), []string{"--workspace", "1"}, errNoDatabaseURL.Error()},
		{"run-due needs database", runDueCmd(), []string{"--as-of", "2026-03-31"}, errNoDatabaseURL.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, tt.cmd, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "run-due", "reconcile"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}
