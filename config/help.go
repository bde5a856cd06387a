package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `
  fieldtrack - location telemetry and route-efficiency analytics

  Usage:
    fieldtrack -mode=<mode> [-config-path=config.yaml]

  Modes:
    telemetry-service   fix ingestion, tracking settings, live feed
    analytics-service   performance, rankings, zone analytics, export
    zone-detector       geofence event detection worker
    agent               on-device position sampler
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}

// PrintConfig prints the effective non-secret configuration at startup.
func PrintConfig(cfg *Config) {
	fmt.Printf("mode: %s\n", cfg.Mode)
	fmt.Printf("database: %s:%s/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	fmt.Printf("rabbitmq: %s:%s\n", cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	fmt.Printf("telemetry port: %s, analytics port: %s\n",
		cfg.Services.TelemetryService, cfg.Services.AnalyticsService)
}
