package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/gogpu/assets"
	assetsprom "github.com/gogpu/assets/prometheus"
	"github.com/gogpu/assets/watch"
)

// notifier forwards file invalidations to the render loop after the cache
// entry has been dropped.
type notifier struct {
	w       *watch.Watcher
	changed chan string
}

func (n *notifier) Watch(path string, invalidate func()) error {
	return n.w.Watch(path, func() {
		invalidate()
		// Registrations are one-shot, so each path is queued at most once
		// per render and the buffer never fills.
		select {
		case n.changed <- path:
		default:
		}
	})
}

func (c *CLI) newWatchCmd() *cobra.Command {
	var (
		out         outputFlags
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch [files...]",
		Short: "Fit images and re-render them whenever they change on disk",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, &out)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			w, err := watch.New(c.logger())
			if err != nil {
				return fmt.Errorf("failed to start watcher: %w", err)
			}
			defer w.Close()
			n := &notifier{w: w, changed: make(chan string, len(args))}

			reg := prometheus.NewRegistry()
			opts := append(cfg.runtimeOptions(),
				assets.WithWatcher(n),
				assets.WithMetrics(assetsprom.NewMetrics(reg)),
			)
			rt := assets.New(opts...)
			defer rt.Close()

			if metricsAddr != "" {
				stop, err := serveMetrics(metricsAddr, reg)
				if err != nil {
					return err
				}
				defer stop()
			}

			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return err
				}
				c.render(ctx, rt, assets.Path(abs), cfg.Output)
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case path := <-n.changed:
					c.render(ctx, rt, assets.Path(path), cfg.Output)
				}
			}
		},
	}
	out.register(cmd)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	return cmd
}

// render fits one file and reports the outcome. Failures are logged so a
// broken save does not stop the loop.
func (c *CLI) render(ctx context.Context, rt *assets.Runtime, key assets.SourceKey, out OutputConfig) {
	img, err := fitImage(ctx, rt, key, out)
	if err == nil {
		file := filepath.Join(out.Dir, outputName(key))
		if err = writePNG(file, img); err == nil {
			_, _ = fmt.Fprintln(c.stdout, file)
			return
		}
	}
	c.logger().Error("render failed", "source", key, "err", err)
}

func serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return nil, fmt.Errorf("metrics server: %w", err)
	case <-time.After(50 * time.Millisecond):
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = srv.Close()
		}
	}, nil
}
