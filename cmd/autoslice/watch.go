package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/reglet-dev/autoslice/internal/infrastructure/container"
	"github.com/reglet-dev/autoslice/internal/infrastructure/engine"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// watchCmd watches projects and profiles and regenerates on change.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch projects and profiles and keep artifacts current (default)",
	Long: `Watch the project and profile directories. A changed project is resliced,
a removed project has its artifacts deleted, and a changed profile reslices
only the artifacts that use it.

On the first run the artifact directory is created and everything is sliced
and mirrored to every target. Later runs resume from the existing artifacts;
delete the artifact directory or send SIGHUP to force a full regeneration.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	c, err := newContainer()
	if err != nil {
		return err
	}
	return watchLoop(cmd.Context(), c)
}

// watchLoop runs the engine and both watchers until SIGINT or SIGTERM, then
// stops accepting changes and lets queued passes and transfers finish.
func watchLoop(parent context.Context, c *container.Container) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fresh, err := prepare(ctx, c)
	if err != nil {
		return err
	}

	eng := c.Engine()
	router := c.Router()
	projectWatcher := c.ProjectWatcher()
	profileWatcher := c.ProfileWatcher()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Passes outlive the signal; Close below ends the worker once drained.
		err := eng.Run(context.WithoutCancel(gctx))
		if errors.Is(err, engine.ErrClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return projectWatcher.Run(gctx, router.HandleProjectEvent)
	})
	g.Go(func() error {
		return profileWatcher.Run(gctx, router.HandleProfileEvent)
	})
	g.Go(func() error {
		hangups := make(chan os.Signal, 1)
		signal.Notify(hangups, syscall.SIGHUP)
		defer signal.Stop(hangups)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hangups:
				slog.Info("SIGHUP received, regenerating everything")
				eng.RegenerateAll()
			}
		}
	})
	if addr := c.Config().Metrics.Listen; addr != "" {
		g.Go(func() error {
			return c.Metrics().Serve(gctx, addr)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down, waiting for queued work", "pending", eng.Pending())
		eng.Close()
		return nil
	})

	if fresh {
		slog.Info("first run, regenerating everything")
		eng.RegenerateAll()
	} else {
		slog.Info("resuming from last run; delete the output directory or send SIGHUP to regenerate everything",
			"output", c.Config().Output)
	}

	err = g.Wait()
	c.Distributor().Wait()
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
