package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fakhrymubarak/weather-text/internal/metrics"
	"github.com/fakhrymubarak/weather-text/internal/model"
	"github.com/fakhrymubarak/weather-text/internal/repository"
	"github.com/fakhrymubarak/weather-text/internal/sms"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notify failures fall in exactly one of these classes.
var (
	ErrFetch    = errors.New("weather fetch failed")
	ErrDispatch = errors.New("message dispatch failed")
)

// PreviewServiceInterface is what the HTTP layer needs.
type PreviewServiceInterface interface {
	Preview(ctx context.Context) (*model.Preview, error)
}

// NotifyService runs fetch, compose and send for one fixed location and recipient.
type NotifyService struct {
	WeatherRepo repository.WeatherRepository
	Sender      sms.Sender
	Location    string
	Recipient   string
	Metrics     *metrics.Notify
	Logger      *zap.SugaredLogger
}

func NewNotifyService(repo repository.WeatherRepository, sender sms.Sender, location, recipient string, m *metrics.Notify, logger *zap.SugaredLogger) *NotifyService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &NotifyService{
		WeatherRepo: repo,
		Sender:      sender,
		Location:    location,
		Recipient:   recipient,
		Metrics:     m,
		Logger:      logger,
	}
}

// Preview fetches the weather and composes the message without sending it.
func (s *NotifyService) Preview(ctx context.Context) (*model.Preview, error) {
	reading, err := s.WeatherRepo.GetWeather(ctx, s.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return &model.Preview{Reading: *reading, Message: ComposeMessage(*reading)}, nil
}

// Notify performs one send from a fresh reading, never a cached one. Errors
// wrap ErrFetch or ErrDispatch; the sender is never called when the fetch fails.
func (s *NotifyService) Notify(ctx context.Context) (*sms.Receipt, error) {
	reading, err := s.WeatherRepo.FetchWeather(ctx, s.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	receipt, err := s.Sender.Send(ctx, model.OutboundMessage{To: s.Recipient, Body: ComposeMessage(*reading)})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	if receipt == nil {
		receipt = &sms.Receipt{}
	}
	return receipt, nil
}

// Run is the scheduled action: it logs the outcome and never returns an error.
func (s *NotifyService) Run(ctx context.Context) {
	log := s.Logger.With("run_id", uuid.NewString(), "location", s.Location)
	log.Infow("notify run started")

	start := time.Now()
	receipt, err := s.Notify(ctx)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		s.Metrics.Observe(metrics.ResultSuccess, elapsed)
		log.Infow("text message sent", "to", s.Recipient, "sid", receipt.SID, "status", receipt.Status, "elapsed", elapsed)
	case errors.Is(err, ErrFetch):
		s.Metrics.Observe(metrics.ResultFetchError, elapsed)
		log.Errorw("notify run failed", "stage", "fetch", "error", err)
	default:
		s.Metrics.Observe(metrics.ResultDispatchError, elapsed)
		log.Errorw("notify run failed", "stage", "dispatch", "error", err)
	}
}
