package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/assets"
)

func (c *CLI) newFitCmd() *cobra.Command {
	var (
		out   outputFlags
		jobs  int
		stats bool
	)
	cmd := &cobra.Command{
		Use:   "fit [files or URLs...]",
		Short: "Fit images into a box and write them as PNG",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, &out)
			if err != nil {
				return err
			}

			keys := make([]assets.SourceKey, len(args))
			for i, arg := range args {
				if keys[i], err = parseInput(arg); err != nil {
					return err
				}
			}

			rt := assets.New(cfg.runtimeOptions()...)
			defer rt.Close()

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(jobs, 1))
			for _, key := range keys {
				g.Go(func() error {
					img, err := fitImage(ctx, rt, key, cfg.Output)
					if err != nil {
						return err
					}
					file := filepath.Join(cfg.Output.Dir, outputName(key))
					if err := writePNG(file, img); err != nil {
						return err
					}
					_, _ = fmt.Fprintln(c.stdout, file)
					return nil
				})
			}
			err = g.Wait()

			if stats {
				s := rt.Cache().Stats()
				_, _ = fmt.Fprintf(c.stderr, "cache: %d entries, %d hits, %d misses\n", s.Entries, s.Hits, s.Misses)
			}
			return err
		},
	}
	out.register(cmd)
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Number of images processed concurrently")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print cache statistics when done")
	return cmd
}
