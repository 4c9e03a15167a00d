package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/nvoss/persona-pilot/internal/outcome"
)

const (
	slackMaxBlocks = 50
	// slackReservedBlocks accounts for header block + context block in each message
	slackReservedBlocks = 2
	slackMaxVariants    = slackMaxBlocks - slackReservedBlocks
)

// SlackNotifier posts composite intervention results to a Slack webhook.
type SlackNotifier struct {
	logger     zerolog.Logger
	webhookURL string
	timing     timingConfig
	poster     *poster
}

// SlackOption customizes SlackNotifier behavior.
type SlackOption func(*SlackNotifier)

// WithSlackTiming overrides timing parameters (primarily for testing).
func WithSlackTiming(rateInterval time.Duration, rateBurst int, backoffInitial, backoffMax, backoffMaxElapsed time.Duration) SlackOption {
	return func(s *SlackNotifier) {
		s.timing.rateInterval = rateInterval
		s.timing.rateBurst = rateBurst
		s.timing.backoffInitial = backoffInitial
		s.timing.backoffMax = backoffMax
		s.timing.backoffMaxElapsed = backoffMaxElapsed
	}
}

// NewSlackNotifier creates a Slack notifier, or a noop notifier when the
// webhook is empty.
func NewSlackNotifier(logger zerolog.Logger, webhookURL string, opts ...SlackOption) Notifier {
	if webhookURL == "" {
		return NewNoop(logger, "slack webhook not configured; notifications disabled")
	}

	notifier := &SlackNotifier{
		logger:     logger,
		webhookURL: webhookURL,
		timing:     defaultTiming,
	}
	for _, opt := range opts {
		opt(notifier)
	}
	notifier.poster = newPoster(logger, "slack", webhookURL, notifier.timing)

	return notifier
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, result outcome.Composite) error {
	if len(result.Variants) == 0 {
		return nil
	}
	if err := n.poster.waitForRateLimit(ctx); err != nil {
		return err
	}

	messages := buildSlackMessages(result)
	for _, message := range messages {
		payload, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("marshal slack payload: %w", err)
		}
		if err := n.poster.postWithRetry(ctx, payload); err != nil {
			return err
		}
	}

	n.logger.Debug().
		Str("run_id", result.RunID).
		Int("variants", len(result.Variants)).
		Int("messages", len(messages)).
		Msg("slack notification sent")

	return nil
}

func buildSlackMessages(result outcome.Composite) []slack.WebhookMessage {
	if len(result.Variants) == 0 {
		return nil
	}

	total := len(result.Variants)
	chunkTotal := (total + slackMaxVariants - 1) / slackMaxVariants
	messages := make([]slack.WebhookMessage, 0, chunkTotal)

	for i := 0; i < total; i += slackMaxVariants {
		end := i + slackMaxVariants
		if end > total {
			end = total
		}
		partIndex := (i / slackMaxVariants) + 1
		messages = append(messages, buildSlackMessage(result, result.Variants[i:end], partIndex, chunkTotal))
	}
	return messages
}

func buildSlackMessage(result outcome.Composite, variants []outcome.Variant, partIndex, partTotal int) slack.WebhookMessage {
	succeeded, failed := result.Tally()
	summary := fmt.Sprintf("Intervention %s settled: %d succeeded, %d failed", result.InterventionName, succeeded, failed)
	if partTotal > 1 {
		summary = fmt.Sprintf("%s (part %d/%d)", summary, partIndex, partTotal)
	}
	header := slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", summary, false, false))

	contextElements := []slack.MixedElement{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Run: `%s`", result.RunID), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Elapsed: %s", result.CompletedAt.Sub(result.StartedAt).Round(time.Second)), false, false),
	}
	if partTotal > 1 {
		contextElements = append(contextElements, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Batch: %d/%d", partIndex, partTotal), false, false))
	}
	contextBlock := slack.NewContextBlock("", contextElements...)

	blocks := []slack.Block{header, contextBlock}
	for _, variant := range variants {
		blocks = append(blocks, buildVariantBlock(variant))
	}

	blockSet := slack.Blocks{BlockSet: blocks}
	return slack.WebhookMessage{
		Text:   summary,
		Blocks: &blockSet,
	}
}

func buildVariantBlock(variant outcome.Variant) slack.Block {
	marker := ":white_check_mark:"
	if !variant.Succeeded() {
		marker = ":x:"
	}
	title := fmt.Sprintf("%s *%s* (%d participants)", marker, variant.VariantName, variant.Participants)
	text := slack.NewTextBlockObject("mrkdwn", title, false, false)

	fields := make([]*slack.TextBlockObject, 0, 2)
	if variant.SimulationID != "" {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Simulation:*\n`%s`", variant.SimulationID), false, false))
	}
	if variant.Err != "" {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", "*Error:*\n"+variant.Err, false, false))
	}

	return slack.NewSectionBlock(text, fields, nil)
}
