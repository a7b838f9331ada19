// Command trigger-action-producer publishes a single fire or resolve event to
// the trigger actions topic, for exercising the notifier locally.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/afikmenashe/incident-notifier/pkg/shared"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/events"
	"github.com/afikmenashe/incident-notifier/services/notifier/internal/producer"
)

func main() {
	var (
		brokers = flag.String("kafka-brokers", shared.GetEnvOrDefault("KAFKA_BROKERS", "localhost:9092"), "Kafka broker addresses (comma-separated)")
		topic   = flag.String("topic", shared.GetEnvOrDefault("TRIGGER_ACTIONS_TOPIC", "incidents.actions"), "Kafka topic name")
		ev      events.TriggerAction
	)
	flag.Int64Var(&ev.ActionID, "action-id", 0, "Alert rule trigger action ID")
	flag.Int64Var(&ev.IncidentID, "incident-id", 0, "Incident ID")
	flag.Int64Var(&ev.ProjectID, "project-id", 0, "Project ID")
	flag.StringVar(&ev.Method, "method", events.MethodFire, "Dispatch method (fire or resolve)")
	flag.Float64Var(&ev.MetricValue, "metric-value", 0, "Metric value that crossed the threshold")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	ev.SchemaVersion = events.SchemaVersion
	if err := ev.Validate(); err != nil {
		slog.Error("Invalid trigger action", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := producer.New(*brokers, *topic)
	if err != nil {
		slog.Error("Failed to create Kafka producer", "error", err)
		slog.Info("Tip: Start Kafka with 'docker compose up -d kafka'")
		os.Exit(1)
	}
	defer p.Close()

	if err := p.Publish(ctx, &ev); err != nil {
		slog.Error("Failed to publish trigger action", "error", err)
		os.Exit(1)
	}
}
