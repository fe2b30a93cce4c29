package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/wayfarermaps/landing/pkg/texture"
)

func init() {
	rootCmd.AddCommand(albedoCmd, nightCmd, cloudsCmd, roughnessCmd, bumpCmd)
}

var albedoCmd = &cobra.Command{
	Use:   "albedo",
	Short: "Bake only the daytime surface layer",
	Run:   bakeLayer(texture.LayerAlbedo),
}

var nightCmd = &cobra.Command{
	Use:   "night",
	Short: "Bake only the night lights layer",
	Run:   bakeLayer(texture.LayerNight),
}

var cloudsCmd = &cobra.Command{
	Use:   "clouds",
	Short: "Bake only the cloud cover layer",
	Run:   bakeLayer(texture.LayerClouds),
}

var roughnessCmd = &cobra.Command{
	Use:   "roughness",
	Short: "Bake only the surface roughness layer",
	Run:   bakeLayer(texture.LayerRoughness),
}

var bumpCmd = &cobra.Command{
	Use:   "bump",
	Short: "Bake only the elevation relief layer",
	Run:   bakeLayer(texture.LayerBump),
}

func bakeLayer(layer string) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		baker := texture.NewBaker(resolveConfig())

		ctx, cancel := context.WithTimeout(context.Background(), bakeTimeout)
		defer cancel()

		if err := baker.Bake(ctx, layer); err != nil {
			logger.Error("Bake failed", "layer", layer, "error", err.Error())
			os.Exit(1)
		}
	}
}
