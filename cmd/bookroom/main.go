package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/shiomura/bookroom/internal/convert"
	"github.com/shiomura/bookroom/internal/server"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bookroom",
		Short: "Convert ebooks into browsable snapshots and read them in the browser",
		Long: `bookroom converts EPUB and PDF books into self-contained snapshot
directories and serves a minimal web reader over a directory of them.

Convert once, read anywhere:

  bookroom convert mybook.epub
  bookroom serve`,
		SilenceUsage: true,
	}
	root.AddCommand(newConvertCmd())
	root.AddCommand(newServeCmd())
	return root
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file.epub|file.pdf>",
		Short: "Convert an ebook into a snapshot directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			outDir, _ := cmd.Flags().GetString("out")
			force, _ := cmd.Flags().GetBool("force")
			maxWidth, _ := cmd.Flags().GetInt("max-image-width")

			log.Printf("Converting: %s", inputPath)

			p := convert.NewPipeline(convert.Options{
				InputPath:     inputPath,
				OutputDir:     outDir,
				Force:         force,
				MaxImageWidth: maxWidth,
			})
			dir, err := p.Run()
			if err != nil {
				return fmt.Errorf("conversion failed: %w", err)
			}

			log.Printf("Done: %s", dir)
			fmt.Println(dir)
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "", "Snapshot directory (default: {name}_data next to the input)")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing snapshot")
	cmd.Flags().Int("max-image-width", 0, "Downscale wider extracted images to this width (0 keeps originals)")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web reader over a directory of snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			root, _ := cmd.Flags().GetString("root")

			cfg := server.NewDefaultConfig()
			if err := server.LoadConfig(configPath, cfg); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if root != "" {
				cfg.Library.Root = root
			}

			return server.Run(context.Background(), cfg)
		},
	}
	cmd.Flags().StringP("config", "c", "config.yaml", "Path to config file")
	cmd.Flags().StringP("root", "r", "", "Library root directory (overrides config)")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
