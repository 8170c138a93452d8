package commands

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gogpu/assets"
	"github.com/gogpu/assets/source"
	"github.com/gogpu/assets/svg"
)

func (c *CLI) newIconCmd() *cobra.Command {
	var (
		size   int
		output string
	)
	cmd := &cobra.Command{
		Use:   "icon [file.svg]",
		Short: "Render an SVG icon to an alpha mask PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, nil)
			if err != nil {
				return err
			}

			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			r := svg.NewRenderer(source.Dir{FS: source.OS{}, Root: filepath.Dir(abs)}, cfg.fontDatabase())
			mask, err := r.Render(svg.RenderParams{
				Path: filepath.Base(abs),
				Size: image.Pt(size, size),
			})
			if err != nil {
				return err
			}

			if output == "" {
				output = outputName(assets.Path(abs))
			}
			if err := writePNG(output, mask); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(c.stdout, output)
			return nil
		},
	}
	cmd.Flags().IntVarP(&size, "size", "s", 24, "Icon width in device pixels")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output file (default: input name with .png)")
	return cmd
}
