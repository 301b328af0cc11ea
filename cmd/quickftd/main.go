// Command quickftd runs the QuickFT server daemon. Process wiring follows
// this codebase's existing main.go: flagx.ArgsFromEnv for environment
// overrides, rtx.Must for fatal startup errors, and prometheusx for a
// metrics/pprof HTTP endpoint on a separate address, now behind a cobra
// command surface instead of a single flat main().
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"
	"github.com/spf13/cobra"

	"github.com/quickft/quickft/config"
	"github.com/quickft/quickft/logging"
	"github.com/quickft/quickft/server"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var promAddr string

func main() {
	root := &cobra.Command{
		Use:   "quickftd",
		Short: "QuickFT file-transfer server daemon",
	}
	root.PersistentFlags().StringVar(&promAddr, "prom", ":9090", "Prometheus metrics export address")

	root.AddCommand(serveCmd())

	rtx.Must(root.Execute(), "quickftd failed")
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the server and block until it is signaled to stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := flag.NewFlagSet("quickftd serve", flag.ContinueOnError)
			cfg, err := config.Load(fs, args)
			if err != nil {
				return fmt.Errorf("quickftd: %w", err)
			}

			promSrv := prometheusx.MustStartPrometheus(promAddr)
			defer promSrv.Shutdown(context.Background())

			logger := logging.New()
			srv := server.New(cfg, logger)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				log.Println("quickftd: received shutdown signal")
				cancel()
			}()

			if err := srv.Start(ctx); err != nil {
				return fmt.Errorf("quickftd: bind port %d: %w", cfg.Port, err)
			}
			log.Printf("quickftd: serving %s on port %d (max-connections=%d)", cfg.Root, cfg.Port, cfg.MaxConnections)

			if err := srv.Serve(); err != nil {
				return fmt.Errorf("quickftd: serve: %w", err)
			}
			return nil
		},
	}
}
