package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"snowwatch/internal/models"
)

// Notifier delivers a notification to the user
type Notifier interface {
	Deliver(ctx context.Context, n models.Notification) error
}

// SnowAlert builds the notification for one alert candidate
func SnowAlert(locationName string, c models.AlertCandidate) models.Notification {
	body := fmt.Sprintf("%d%% chance of snow", c.SnowProbability)
	if c.SnowfallCm > 0 {
		body += fmt.Sprintf(" (%.1fcm expected)", c.SnowfallCm)
	}
	return models.Notification{
		Title:    "Snow Alert: " + locationName,
		Subtitle: c.DisplayDate,
		Body:     body,
	}
}

// LogNotifier writes notifications to the log. Used when no Redis stream is configured.
type LogNotifier struct {
	logger *zap.SugaredLogger
}

func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Deliver(_ context.Context, notification models.Notification) error {
	n.logger.Infow("snow alert",
		"title", notification.Title,
		"subtitle", notification.Subtitle,
		"body", notification.Body,
	)
	return nil
}
