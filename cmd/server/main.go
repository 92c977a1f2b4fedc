package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/limaJavier/invigilation/internal/metrics"
	"github.com/limaJavier/invigilation/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

type options struct {
	addr            string
	data            string
	shutdownTimeout time.Duration
}

func main() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)

	opts := options{
		addr:            ":5000",
		shutdownTimeout: 10 * time.Second,
	}
	if port := os.Getenv("PORT"); port != "" {
		opts.addr = ":" + port
	}

	cmd := &cobra.Command{
		Use:   "invigilation-server",
		Short: "Serve exam room allocation and invigilation duty rosters over HTTP",
		Long: `Exposes:
- POST /api/allocate (optional JSON snapshot as body, "strategy" query parameter)
- GET /api/health
- GET /metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "Address to listen on; the PORT environment variable overrides the default")
	cmd.Flags().StringVar(&opts.data, "data", "", "Path to the JSON snapshot used when a request carries no body")
	cmd.Flags().DurationVar(&opts.shutdownTimeout, "shutdown-timeout", opts.shutdownTimeout, "Time given to in-flight requests on shutdown")
	cmd.Flags().AddGoFlagSet(klogFlags)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	logger := klog.FromContext(ctx).WithName("server")
	if opts.data == "" {
		return errors.New("a snapshot file must be specified with --data")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := server.NewAllocationHandler(server.FileSource{Path: opts.data}, metrics.NewRecorder(registry), logger)
	httpServer := &http.Server{
		Addr:              opts.addr,
		Handler:           server.NewRouter(handler, registry).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(err, "http shutdown error")
		}
	}()

	logger.Info("listening", "addr", opts.addr, "data", opts.data)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}
