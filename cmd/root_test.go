package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltinCommandsRunWithoutConfig(t *testing.T) {
	// No incentive-matcher.yaml exists here.
	t.Chdir(t.TempDir())

	tests := [][]string{
		{"help"},
		{"help", "match"},
		{"version"},
		{"completion", "bash"},
	}

	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&out)
			rootCmd.SetArgs(args)

			require.NoError(t, rootCmd.Execute())
		})
	}
}
