package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wayfarermaps/landing/pkg/texture"
	"github.com/wayfarermaps/landing/pkg/utils"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report which external raster tools are installed",
	Run: func(cmd *cobra.Command, args []string) {
		available := texture.NewToolchain(logger).CheckTools()

		tools := make([]string, 0, len(available))
		for tool := range available {
			tools = append(tools, tool)
		}
		sort.Strings(tools)

		for _, tool := range tools {
			status := "missing"
			if available[tool] {
				status = "installed"
			}
			fmt.Printf("%-15s %s\n", tool, status)
		}

		if utils.GetEnvTrimmed("MAPBOX_TOKEN") != "" {
			fmt.Println("MAPBOX_TOKEN    set")
		} else {
			fmt.Println("MAPBOX_TOKEN    not set (remote albedo fetch disabled)")
		}
	},
}
