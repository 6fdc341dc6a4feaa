// Command garildump dials a RIL socket and prints decoded parcels as they
// arrive. It exists to exercise the public garil API end to end and as a
// quick diagnostic tool against a live rild socket or a TCP-exposed bridge.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ril-go/garil"
	"github.com/ril-go/garil/internal/logging"
	"github.com/ril-go/garil/internal/metrics"
)

func main() {
	cfg, showVersion := parseFlags()
	if showVersion {
		fmt.Printf("garildump %s (api %s)\n", garil.String(), garil.APIVersion())
		return
	}
	if cfg == nil {
		os.Exit(2)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		level = slog.LevelInfo
	}
	logging.Set(logging.New(cfg.logFormat, level, os.Stderr))

	if cfg.metricsAddr != "" {
		srv := metrics.ServeHTTP(cfg.metricsAddr)
		defer srv.Close()
	}

	flags := garil.Flags(0)
	if cfg.delayStart > 0 {
		flags |= garil.DelayMessageProcessing
	}

	conn, err := garil.Dial(cfg.address, flags, garil.WithNetwork(cfg.network))
	if err != nil {
		logging.L().Error("dial_failed", "address", cfg.address, "network", cfg.network, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	client := garil.NewClient(conn)
	unsubscribe := client.Conn().Subscribe(func(p *garil.Parcel) {
		logging.L().Info("parcel",
			"size", p.Size(),
			"malformed", p.IsMalformed(),
		)
	})
	defer unsubscribe()

	if cfg.delayStart > 0 {
		logging.L().Info("delaying_message_processing", "for", cfg.delayStart)
		time.Sleep(cfg.delayStart)
		conn.StartMessageProcessing()
	}

	select {}
}
