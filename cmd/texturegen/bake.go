package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wayfarermaps/landing/pkg/texture"
)

// bakeTimeout bounds a full run including remote fetches and GDAL work.
const bakeTimeout = 30 * time.Minute

func init() {
	rootCmd.AddCommand(bakeCmd)
}

var bakeCmd = &cobra.Command{
	Use:   "bake",
	Short: "Bake every texture layer",
	Run: func(cmd *cobra.Command, args []string) {
		baker := texture.NewBaker(resolveConfig())

		ctx, cancel := context.WithTimeout(context.Background(), bakeTimeout)
		defer cancel()

		if err := baker.BakeAll(ctx); err != nil {
			logger.Error("Bake finished with failures", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("All layers baked")
	},
}
