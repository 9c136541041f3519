package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/serroba/recipebox/internal/config"
	"github.com/serroba/recipebox/internal/container"
	"github.com/serroba/recipebox/internal/messaging"
	"github.com/serroba/recipebox/internal/recipes"
	"github.com/serroba/recipebox/internal/shortlink"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newInjector(options *container.Options) *do.Injector {
	injector := do.New()
	do.ProvideValue(injector, options)
	container.ServerPackages(injector)

	return injector
}

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := newInjector(options)
		logger := do.MustInvoke[*zap.Logger](injector)

		var (
			server    *http.Server
			consumers *messaging.ConsumerGroup
		)

		hooks.OnStart(func() {
			router := do.MustInvoke[*chi.Mux](injector)

			// Invoke API to trigger route registration
			_ = do.MustInvoke[huma.API](injector)

			// Without Redis, events stay in-process and are consumed here.
			if options.RedisAddr == "" {
				consumers = do.MustInvoke[*messaging.ConsumerGroup](injector)
				if err := consumers.Start(context.Background()); err != nil {
					logger.Fatal("failed to start analytics consumers", zap.Error(err))
				}
			}

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", options.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting", zap.Int("port", options.Port))

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
		})
	})

	cli.Root().Use = "recipebox"
	cli.Root().AddCommand(openAPICommand(), loadIngredientsCommand(), pruneLinksCommand())

	cli.Run()
}

func openAPICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI spec",
		Run: humacli.WithOptions(func(_ *cobra.Command, _ []string, options *container.Options) {
			injector := newInjector(options)
			defer func() { _ = injector.Shutdown() }()

			spec, err := do.MustInvoke[huma.API](injector).OpenAPI().YAML()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}

			fmt.Println(string(spec))
		}),
	}
}

func loadIngredientsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load-ingredients <file.csv>",
		Short: "Import ingredients from a CSV file with name and measurement_unit columns",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, options *container.Options) {
			injector := newInjector(options)
			defer func() { _ = injector.Shutdown() }()

			logger := do.MustInvoke[*zap.Logger](injector)

			file, err := os.Open(args[0])
			if err != nil {
				logger.Fatal("failed to open ingredients file", zap.Error(err))
			}
			defer file.Close()

			items, err := recipes.ReadIngredientsCSV(file)
			if err != nil {
				logger.Fatal("failed to read ingredients file", zap.String("file", args[0]), zap.Error(err))
			}

			created, err := do.MustInvoke[*recipes.Service](injector).ImportIngredients(cmd.Context(), items)
			if err != nil {
				logger.Fatal("failed to import ingredients", zap.Int("created", created), zap.Error(err))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d ingredients added\n", created, len(items))
		}),
	}
}

func pruneLinksCommand() *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "prune-links",
		Short: "Delete short links unused for longer than --link-retention",
		Run: humacli.WithOptions(func(_ *cobra.Command, _ []string, options *container.Options) {
			injector := newInjector(options)
			defer func() { _ = injector.Shutdown() }()

			logger := do.MustInvoke[*zap.Logger](injector)
			links := do.MustInvoke[*shortlink.Service](injector)

			retention, err := config.ParseDuration("link-retention", options.LinkRetention)
			if err != nil {
				logger.Fatal("invalid retention", zap.Error(err))
			}

			if retention == 0 {
				logger.Warn("link retention is 0, short links are kept forever")
			}

			prune := func() {
				if _, err := links.Prune(context.Background(), retention); err != nil {
					logger.Error("failed to prune short links", zap.Error(err))
				}
			}

			if schedule == "" {
				prune()

				return
			}

			c := cron.New()
			if _, err := c.AddFunc(schedule, prune); err != nil {
				logger.Fatal("invalid schedule", zap.String("schedule", schedule), zap.Error(err))
			}

			c.Start()
			logger.Info("pruning short links on schedule", zap.String("schedule", schedule))

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			<-sigChan

			<-c.Stop().Done()
		}),
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", `Cron spec to keep running, e.g. "@every 1h"`)

	return cmd
}
