package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/caas-team/availtrack/internal/logger"
	"github.com/caas-team/availtrack/pkg/config"
	"github.com/caas-team/availtrack/pkg/tracker"
)

// NewCmdRun creates a new run command
func NewCmdRun(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run availtrack",
		Long:  `Availtrack will be started with the provided configuration`,
		RunE:  run(version),
	}

	defaults := config.NewConfig()

	NewFlag("api.address", "apiAddress").String().Bind(cmd, defaults.Api.ListeningAddress, "api: The address the server is listening on")

	NewFlag("apiManagement.gatewayUrl", "gatewayUrl").StringP("g").Bind(cmd, "", "api management: The base url of the gateway")
	NewFlag("apiManagement.subscriptionKey", "subscriptionKey").String().Bind(cmd, "", "api management: The subscription key sent to the gateway")
	NewFlag("apiManagement.statusEndpoint", "statusEndpoint").String().Bind(cmd, "", "api management: The path requested by the certificate check")
	NewFlag("apiManagement.timeout", "gatewayTimeout").Duration().Bind(cmd, defaults.ApiManagement.Timeout, "api management: The timeout of a request to the gateway")

	NewFlag("schedule.interval", "interval").Duration().Bind(cmd, defaults.Schedule.Interval, "The interval the availability tests are executed in")
	NewFlag("certificate.criticalDays", "certificateCriticalDays").Int().Bind(cmd, defaults.Certificate.CriticalDays,
		"Certificates expiring within this many days are reported as critical")

	NewFlag("monitors.source", "monitorsSource").String().Bind(cmd, "", "monitors: The path or http(s) url of a file with additional monitors")
	NewFlag("monitors.token", "monitorsToken").String().Bind(cmd, "", "monitors: Bearer token to authenticate the http endpoint")
	NewFlag("monitors.timeout", "monitorsTimeout").Duration().Bind(cmd, defaults.Monitors.Timeout, "monitors: The timeout for the http request")
	NewFlag("monitors.retry.count", "monitorsRetryCount").Int().Bind(cmd, defaults.Monitors.Retry.Count, "monitors: Amount of retries trying to load the file")
	NewFlag("monitors.retry.delay", "monitorsRetryDelay").Duration().Bind(cmd, defaults.Monitors.Retry.Delay, "monitors: The initial delay between retries")

	NewFlag("collector.url", "collectorUrl").String().Bind(cmd, "", "collector: The url availability records are delivered to, disabled if empty")
	NewFlag("collector.token", "collectorToken").String().Bind(cmd, "", "collector: Bearer token to authenticate the collector")
	NewFlag("collector.timeout", "collectorTimeout").Duration().Bind(cmd, defaults.Collector.Timeout, "collector: The timeout of a delivery")
	NewFlag("collector.retry.count", "collectorRetryCount").Int().Bind(cmd, defaults.Collector.Retry.Count, "collector: Amount of retries of a failed delivery")
	NewFlag("collector.retry.delay", "collectorRetryDelay").Duration().Bind(cmd, defaults.Collector.Retry.Delay, "collector: The initial delay between retries")

	NewFlag("tracing.exporter", "tracingExporter").String().Bind(cmd, defaults.Tracing.Exporter.String(), "tracing: The span exporter, one of http, grpc, stdout or noop")
	NewFlag("tracing.url", "tracingUrl").String().Bind(cmd, "", "tracing: The otlp endpoint spans are exported to")
	NewFlag("tracing.token", "tracingToken").String().Bind(cmd, "", "tracing: Bearer token to authenticate the otlp endpoint")
	NewFlag("tracing.certPath", "tracingCertPath").String().Bind(cmd, "", "tracing: Path to a PEM bundle trusted for the otlp endpoint")

	return cmd
}

func run(version string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log := logger.NewLogger()
		ctx, stop := signal.NotifyContext(logger.IntoContext(context.Background(), log), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := config.NewConfig()
		if err := viper.Unmarshal(cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
		if err := cfg.Validate(ctx); err != nil {
			log.Error("Error while validating the config", "error", err)
			return err
		}

		t := tracker.New(cfg, version)

		log.Info("Running availtrack", "version", version)
		if err := t.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Availtrack stopped", "error", err)
			return err
		}
		return nil
	}
}
