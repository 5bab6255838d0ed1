package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"filingscan/internal/config"
)

// --- Presets Command ---

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in form type and keyword presets",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printPresets(cmd.OutOrStdout(), cfg.Filter.Preset)
	},
}

func printPresets(w io.Writer, active string) {
	if active == "" {
		active = config.DefaultPreset
	}
	for _, name := range config.PresetNames() {
		p := config.Presets[name]
		marker := " "
		if name == active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s: %s\n", marker, p.Name, p.Description)
		fmt.Fprintf(w, "    forms:    %s\n", strings.Join(p.FormTypes, ", "))
		fmt.Fprintf(w, "    keywords: %s\n", strings.Join(p.Keywords, ", "))
	}
}
