// Package notify delivers the report image to every configured chat.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/interfaces"
)

// ErrNoTargets is returned when nothing is configured to receive reports.
var ErrNoTargets = errors.New("no notification targets configured")

// Delivery is the outcome for one target.
type Delivery struct {
	Target string `json:"target"`
	ChatID string `json:"chat_id"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// Service sends photos to a fixed list of targets.
type Service struct {
	sender  interfaces.PhotoSender
	targets []common.TelegramTarget
	logger  *common.Logger
}

// NewService creates a notify service
func NewService(sender interfaces.PhotoSender, targets []common.TelegramTarget, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{sender: sender, targets: targets, logger: logger}
}

// Send delivers image to each target in turn. It succeeds when at least
// one delivery succeeded and fails only when every target failed.
func (s *Service) Send(ctx context.Context, filename string, image []byte, caption string) ([]Delivery, error) {
	if len(s.targets) == 0 {
		return nil, ErrNoTargets
	}

	deliveries := make([]Delivery, 0, len(s.targets))
	var errs []error
	for i, target := range s.targets {
		name := target.Name
		if name == "" {
			name = fmt.Sprintf("target-%d", i+1)
		}
		d := Delivery{Target: name, ChatID: target.ChatID}

		if err := s.sender.SendPhoto(ctx, target.BotToken, target.ChatID, filename, image, caption); err != nil {
			d.Error = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			s.logger.Warn().Str("target", name).Str("chat_id", target.ChatID).Err(err).Msg("Notification failed")
		} else {
			d.OK = true
			s.logger.Info().Str("target", name).Str("chat_id", target.ChatID).Msg("Notification sent")
		}
		deliveries = append(deliveries, d)

		if ctx.Err() != nil {
			break
		}
	}

	if len(errs) == len(deliveries) {
		return deliveries, fmt.Errorf("all notifications failed: %w", errors.Join(errs...))
	}
	return deliveries, nil
}
