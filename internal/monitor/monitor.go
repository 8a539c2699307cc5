// Package monitor periodically recomputes every company's forecast and
// notifies the company's subscribers when realistic cash is projected to
// fall below half of the current balance.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"example.com/cashflow-forecast/internal/forecast"
	"example.com/cashflow-forecast/internal/notifications"
)

const (
	defaultConcurrency = 4
	defaultRunTimeout  = 5 * time.Minute
)

type Forecaster interface {
	Forecast(ctx context.Context, companyID uuid.UUID, horizon int) (forecast.Result, error)
}

type CompanyLister interface {
	CompanyIDs(ctx context.Context) ([]uuid.UUID, error)
}

type Publisher interface {
	Publish(companyID uuid.UUID, event notifications.Event) int
}

// Assessment is the outcome of one company's forecast. Err is set when the
// forecast could not be computed; Summary is then empty.
type Assessment struct {
	CompanyID uuid.UUID
	Horizon   int
	Summary   forecast.Summary
	AtRisk    bool
	Err       error
}

type Options struct {
	Concurrency int
	RunTimeout  time.Duration
}

type Monitor struct {
	forecaster Forecaster
	companies  CompanyLister
	publisher  Publisher
	logger     *slog.Logger
	options    Options

	mu        sync.Mutex
	scheduler *cron.Cron
}

// New создает монитор рисков кассового разрыва.
func New(forecaster Forecaster, companies CompanyLister, publisher Publisher, logger *slog.Logger, options Options) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	if options.Concurrency <= 0 {
		options.Concurrency = defaultConcurrency
	}
	if options.RunTimeout <= 0 {
		options.RunTimeout = defaultRunTimeout
	}

	return &Monitor{
		forecaster: forecaster,
		companies:  companies,
		publisher:  publisher,
		logger:     logger,
		options:    options,
	}
}

// Evaluate считает прогноз для всех компаний. Ошибка одной компании не
// прерывает проверку остальных и возвращается в ее Assessment.
func (m *Monitor) Evaluate(ctx context.Context, horizon int) ([]Assessment, error) {
	ids, err := m.companies.CompanyIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}

	assessments := make([]Assessment, len(ids))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(m.options.Concurrency)

	for i, companyID := range ids {
		i, companyID := i, companyID
		group.Go(func() error {
			assessments[i] = m.assess(groupCtx, companyID, horizon)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return assessments, nil
}

func (m *Monitor) assess(ctx context.Context, companyID uuid.UUID, horizon int) Assessment {
	assessment := Assessment{CompanyID: companyID, Horizon: horizon}

	result, err := m.forecaster.Forecast(ctx, companyID, horizon)
	if err != nil {
		assessment.Err = err
		return assessment
	}

	assessment.Horizon = len(result.Series) - 1
	assessment.Summary = result.Summary
	assessment.AtRisk = result.Summary.AtRisk()
	return assessment
}

// RunOnce проверяет все компании на горизонте по умолчанию и публикует
// событие cashflow_risk для компаний в зоне риска. Возвращает их число.
func (m *Monitor) RunOnce(ctx context.Context) (int, error) {
	started := time.Now()

	assessments, err := m.Evaluate(ctx, 0)
	if err != nil {
		return 0, err
	}

	atRisk := 0
	failed := 0
	for _, assessment := range assessments {
		if assessment.Err != nil {
			failed++
			m.logger.Warn("risk check failed",
				slog.String("company_id", assessment.CompanyID.String()),
				slog.String("error", assessment.Err.Error()),
			)
			continue
		}
		if !assessment.AtRisk {
			continue
		}

		atRisk++
		delivered := m.publisher.Publish(assessment.CompanyID, RiskEvent(assessment))
		m.logger.Info("cash-flow risk detected",
			slog.String("company_id", assessment.CompanyID.String()),
			slog.String("net_realistic", assessment.Summary.NetRealisticAtHorizon.String()),
			slog.String("current_balance", assessment.Summary.CurrentBalance.String()),
			slog.Int("subscribers", delivered),
		)
	}

	m.logger.Info("risk check completed",
		slog.Int("companies", len(assessments)),
		slog.Int("at_risk", atRisk),
		slog.Int("failed", failed),
		slog.Duration("duration", time.Since(started)),
	)

	return atRisk, nil
}

// RiskEvent собирает SSE-событие о риске кассового разрыва.
func RiskEvent(assessment Assessment) notifications.Event {
	summary := assessment.Summary
	return notifications.Event{
		Type: notifications.EventCashflowRisk,
		Data: map[string]interface{}{
			"company_id":                assessment.CompanyID.String(),
			"horizon_days":              assessment.Horizon,
			"current_balance":           summary.CurrentBalance.StringFixed(2),
			"net_realistic_at_horizon":  summary.NetRealisticAtHorizon.StringFixed(2),
			"net_optimistic_at_horizon": summary.NetOptimisticAtHorizon.StringFixed(2),
			"gap":                       summary.Gap.StringFixed(2),
		},
	}
}

// Start запускает проверку по cron-расписанию в заданной временной зоне.
func (m *Monitor) Start(schedule string, location *time.Location) error {
	if location == nil {
		location = time.UTC
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.scheduler != nil {
		return fmt.Errorf("risk monitor already started")
	}

	scheduler := cron.New(cron.WithLocation(location))
	_, err := scheduler.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.options.RunTimeout)
		defer cancel()

		if _, err := m.RunOnce(ctx); err != nil {
			m.logger.Error("risk check failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule risk monitor: %w", err)
	}

	scheduler.Start()
	m.scheduler = scheduler
	m.logger.Info("risk monitor started",
		slog.String("schedule", schedule),
		slog.String("timezone", location.String()),
	)

	return nil
}

// Stop останавливает расписание и ждет завершения текущей проверки.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	scheduler := m.scheduler
	m.scheduler = nil
	m.mu.Unlock()

	if scheduler == nil {
		return nil
	}

	select {
	case <-scheduler.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
