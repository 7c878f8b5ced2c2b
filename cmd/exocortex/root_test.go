package main

import "testing"

func TestRootCommandRegistersAllSubcommands(t *testing.T) {
	want := []string{"store", "recall", "get", "list", "update", "delete",
		"link", "unlink", "explore", "trace", "analyze", "consolidate", "stats",
		"serve", "sleep"}

	got := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		got[c.Name()] = true
	}

	for _, name := range want {
		if !got[name] {
			t.Errorf("expected rootCmd to register a %q subcommand", name)
		}
	}
}

func TestRootCommandHasConfigFlag(t *testing.T) {
	if rootCmd.PersistentFlags().Lookup("config") == nil {
		t.Error("expected a persistent --config flag")
	}
}
