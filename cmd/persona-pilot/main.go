package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/nvoss/persona-pilot/internal/api"
	"github.com/nvoss/persona-pilot/internal/config"
	"github.com/nvoss/persona-pilot/internal/controller"
	"github.com/nvoss/persona-pilot/internal/logging"
	"github.com/nvoss/persona-pilot/internal/metrics"
	"github.com/nvoss/persona-pilot/internal/notify"
	"github.com/nvoss/persona-pilot/internal/orchestrate"
	"github.com/nvoss/persona-pilot/internal/outcome"
	"github.com/nvoss/persona-pilot/internal/plan"
	"github.com/nvoss/persona-pilot/internal/server"
)

func main() {
	planPath := flag.String("plan", "", "path to an intervention plan file")
	healthOnly := flag.Bool("health", false, "probe the service and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("")
		fallback.Fatal().Err(err).Msg("configuration error")
	}
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.New()
	client, err := api.New(logger, cfg.BaseURL,
		api.WithAPIKey(cfg.APIKey),
		api.WithTimeout(cfg.RequestTimeout),
		api.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
		api.WithMetrics(collector),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("client setup failed")
	}

	server.Start(ctx, logger, collector, cfg.MetricsPort)

	if *healthOnly {
		status, err := client.Health(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("service unreachable")
		}
		logger.Info().
			Str("status", status.Status).
			Str("version", status.Version).
			Msg("service healthy")
		return
	}

	if *planPath == "" {
		logger.Fatal().Msg("-plan is required unless -health is set")
	}

	p, err := plan.Load(*planPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("plan load failed")
	}

	result, err := run(ctx, logger, cfg, client, collector, p)
	if err != nil {
		logger.Fatal().Err(err).Msg("intervention run failed")
	}

	succeeded, failed := result.Tally()
	logger.Info().
		Str("run_id", result.RunID).
		Int("succeeded", succeeded).
		Int("failed", failed).
		Msg("done")
	if failed > 0 {
		os.Exit(1)
	}
}

func run(ctx context.Context, logger zerolog.Logger, cfg config.Config, client *api.Client, collector *metrics.Metrics, p *plan.Plan) (outcome.Composite, error) {
	populations := controller.NewPopulationController(logger, client)
	interventions := controller.NewInterventionController(logger)
	simulations := controller.NewSimulationController(logger, client)

	intervention, err := interventions.Create(p.InterventionRequest())
	if err != nil {
		return outcome.Composite{}, err
	}

	agents := p.Population.Agents
	if len(agents) == 0 {
		generated, err := populations.GenerateBulk(ctx, p.Name, p.Population.Template, p.Population.Total, p.SegmentSpecs(), p.Population.Context)
		if err != nil {
			return outcome.Composite{}, err
		}
		for _, agent := range generated.Agents {
			agents = append(agents, agent.Name)
		}
	}

	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = cfg.Concurrency
	}

	orchestrator := orchestrate.New(logger, simulations, interventions,
		orchestrate.WithConcurrency(concurrency),
		orchestrate.WithNotifier(buildNotifier(logger, cfg)),
		orchestrate.WithMetrics(collector),
	)

	return orchestrator.Execute(ctx, intervention.ID, orchestrate.ParticipantSpec{
		PopulationID: p.Population.ID,
		AgentNames:   agents,
		MaxRounds:    p.MaxRounds,
	})
}

func buildNotifier(logger zerolog.Logger, cfg config.Config) notify.Notifier {
	var notifiers []notify.Notifier

	notifiers = append(notifiers, notify.NewSlackNotifier(logger, cfg.SlackWebhookURL))

	webhookNotifier, err := notify.NewWebhookNotifier(logger, cfg.WebhookURL, cfg.WebhookTemplate)
	if err != nil {
		logger.Fatal().Err(err).Msg("webhook notifier setup failed")
	}
	if webhookNotifier != nil {
		notifiers = append(notifiers, webhookNotifier)
	}

	combined := notify.NewMultiNotifier(notifiers...)
	if cfg.DryRun {
		return notify.NewDryRunNotifier(logger, combined)
	}
	return combined
}
