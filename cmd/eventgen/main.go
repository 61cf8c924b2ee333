// Command eventgen sends synthetic security events to the collector so the
// SIEM pipeline can be verified end to end without touching real accounts.
package main

import (
	"flag"
	"time"

	"go.uber.org/zap"

	"secwatch/internal/config"
	"secwatch/internal/siem"
)

func main() {
	count := flag.Int("count", 7, "number of failed-login events to send")
	interval := flag.Duration("interval", 500*time.Millisecond, "delay between events")
	username := flag.String("username", "nonexistent", "username to report in events")
	ip := flag.String("ip", "192.0.2.55", "source IP to report in events")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.CollectorAddr() == "" {
		logger.Fatal("no collector configured (QRADAR_HOST)")
	}

	f := siem.NewForwarder(cfg.CollectorAddr(), cfg.QRadarProtocol, cfg.QRadarSendTimeout, logger)
	defer f.Close()

	logger.Info("sending synthetic events",
		zap.String("collector", cfg.CollectorAddr()),
		zap.Int("count", *count),
	)
	for i := 1; i <= *count; i++ {
		f.Send(siem.LoginAttempt(*username, *ip, false, map[string]any{
			"reason":   "invalid_password",
			"attempts": i,
		}, time.Now()))
		time.Sleep(*interval)
	}
	f.Send(siem.SuspiciousActivity(*username, *ip, "port_scan", map[string]any{
		"ports": []int{22, 80, 443},
	}, time.Now()))
	logger.Info("done")
}
