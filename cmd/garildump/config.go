package main

import (
	"flag"
	"fmt"
	"time"
)

type appConfig struct {
	network     string
	address     string
	logFormat   string
	logLevel    string
	metricsAddr string
	delayStart  time.Duration
}

func parseFlags() (*appConfig, bool) {
	network := flag.String("network", "unix", "Dial network: unix|tcp")
	address := flag.String("address", "/dev/socket/rild", "Address to dial")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g. :9100); empty disables")
	delayStart := flag.Duration("delay-start", 0, "Hold message delivery for this long after connecting, then release it")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	cfg := &appConfig{
		network:     *network,
		address:     *address,
		logFormat:   *logFormat,
		logLevel:    *logLevel,
		metricsAddr: *metricsAddr,
		delayStart:  *delayStart,
	}
	if err := cfg.validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

func (c *appConfig) validate() error {
	switch c.network {
	case "unix", "tcp":
	default:
		return fmt.Errorf("invalid network: %s", c.network)
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.delayStart < 0 {
		return fmt.Errorf("delay-start must be >= 0")
	}
	return nil
}
