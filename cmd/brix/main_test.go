// Package main provides tests for the brix CLI.
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Spycner/brix/internal/cli"
)

// sandbox keeps root command runs away from the user's real config,
// caches, and the network-backed release check.
func sandbox(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("BRIX_UPDATE_CHECK", "false")
}

func TestVersionCommand(t *testing.T) {
	sandbox(t)
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("version command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "brix v") {
		t.Errorf("version output should contain 'brix v', got: %s", output)
	}
}

func TestVersionFlag(t *testing.T) {
	sandbox(t)
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("--version error = %v", err)
	}

	if !strings.Contains(buf.String(), "brix v") {
		t.Errorf("--version output should contain 'brix v', got: %s", buf.String())
	}
}

func TestHelpCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	output := buf.String()
	expectedCommands := []string{"doctor", "project", "profile", "token", "version", "completion"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestPersistentFlags(t *testing.T) {
	cmd := cli.NewRootCmd()

	for _, name := range []string{"config", "profiles-path", "project-dir", "verbose", "output"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("root command should define persistent flag --%s", name)
		}
	}
	if cmd.PersistentFlags().ShorthandLookup("o") == nil {
		t.Error("output flag should have shorthand -o")
	}
	if cmd.PersistentFlags().ShorthandLookup("v") == nil {
		t.Error("verbose flag should have shorthand -v")
	}
}

func TestCompletionCommand(t *testing.T) {
	shells := []string{"bash", "zsh", "fish", "powershell"}

	for _, shell := range shells {
		t.Run(shell, func(t *testing.T) {
			sandbox(t)
			cmd := cli.NewRootCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs([]string{"completion", shell})

			err := cmd.Execute()
			if err != nil {
				t.Errorf("completion %s command error = %v", shell, err)
			}
			if buf.Len() == 0 {
				t.Errorf("completion %s should produce a script", shell)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	sandbox(t)
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"unknown-command"})

	err := cmd.Execute()
	if err == nil {
		t.Error("unknown command should return an error")
	}
}
