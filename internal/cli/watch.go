package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/agentx-labs/extswitch/internal/catalog"
	"github.com/agentx-labs/extswitch/internal/compose"
	"github.com/agentx-labs/extswitch/internal/config"
	"github.com/agentx-labs/extswitch/internal/metrics"
	"github.com/agentx-labs/extswitch/internal/surface"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var watchMetricsAddr string

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.addr)")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the popup view every time it changes",
	Long: `Run the popup engine without a terminal UI. The composed view is printed
once at start and again after every refresh caused by an extension being enabled,
disabled, installed or removed, or by settings changed from another process.`,
	RunE: runWatch,
}

// textRenderer prints each composition as plain text.
type textRenderer struct {
	mu sync.Mutex
	w  io.Writer
}

func (r *textRenderer) OnComposed(s surface.Sections) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "--- %s (%s)\n", time.Now().Format(time.TimeOnly), s.Result.Mode)
	fmt.Fprint(r.w, compose.Render(s.Result))
}

func (r *textRenderer) OnItemPatched(it catalog.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "--- %s %s %s\n", time.Now().Format(time.TimeOnly), it.ID, enabledWord(it.Enabled))
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	m := metrics.New()
	addr := watchMetricsAddr
	if addr == "" {
		addr = config.Get(config.KeyMetricsAddr)
	}
	if addr != "" {
		srv := &http.Server{Addr: addr, Handler: metricsMux(m), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				pterm.Error.Printfln("metrics server: %v", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
		pterm.Info.Printfln("Serving metrics on http://%s/metrics", addr)
	}

	p := e.popup(&textRenderer{w: cmd.OutOrStdout()}, ptermStatus, m)
	defer p.Close()
	if err := p.Start(ctx); err != nil {
		return err
	}
	pterm.Debug.Println("watching for changes")

	<-ctx.Done()
	return nil
}

func metricsMux(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}
