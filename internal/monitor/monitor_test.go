package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/cashflow-forecast/internal/forecast"
	"example.com/cashflow-forecast/internal/notifications"
)

type fakeForecaster struct {
	results map[uuid.UUID]forecast.Result
	errs    map[uuid.UUID]error
}

func (f *fakeForecaster) Forecast(_ context.Context, companyID uuid.UUID, _ int) (forecast.Result, error) {
	if err, ok := f.errs[companyID]; ok {
		return forecast.Result{}, err
	}
	return f.results[companyID], nil
}

type fakeCompanies struct {
	ids []uuid.UUID
	err error
}

func (f fakeCompanies) CompanyIDs(context.Context) ([]uuid.UUID, error) {
	return f.ids, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[uuid.UUID][]notifications.Event
}

func (p *recordingPublisher) Publish(companyID uuid.UUID, event notifications.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.events == nil {
		p.events = make(map[uuid.UUID][]notifications.Event)
	}
	p.events[companyID] = append(p.events[companyID], event)
	return 1
}

func resultWith(current, realistic int64) forecast.Result {
	return forecast.Result{
		Series: make(forecast.Series, 31),
		Summary: forecast.Summary{
			CurrentBalance:         decimal.NewFromInt(current),
			NetRealisticAtHorizon:  decimal.NewFromInt(realistic),
			NetOptimisticAtHorizon: decimal.NewFromInt(realistic),
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestRunOncePublishesOnlyRiskyCompanies проверяет публикацию только для компаний в зоне риска.
func TestRunOncePublishesOnlyRiskyCompanies(t *testing.T) {
	healthy := uuid.New()
	risky := uuid.New()
	broken := uuid.New()

	forecaster := &fakeForecaster{
		results: map[uuid.UUID]forecast.Result{
			healthy: resultWith(100000, 90000),
			risky:   resultWith(100000, 40000),
		},
		errs: map[uuid.UUID]error{broken: errors.New("db down")},
	}
	publisher := &recordingPublisher{}
	monitor := New(forecaster, fakeCompanies{ids: []uuid.UUID{healthy, risky, broken}}, publisher, quietLogger(), Options{})

	atRisk, err := monitor.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, atRisk)
	assert.Empty(t, publisher.events[healthy])
	assert.Empty(t, publisher.events[broken])
	require.Len(t, publisher.events[risky], 1)

	event := publisher.events[risky][0]
	assert.Equal(t, notifications.EventCashflowRisk, event.Type)
	data, ok := event.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "40000.00", data["net_realistic_at_horizon"])
	assert.Equal(t, 30, data["horizon_days"])
}

// TestEvaluateKeepsOrderAndErrors проверяет порядок оценок и сохранение ошибок.
func TestEvaluateKeepsOrderAndErrors(t *testing.T) {
	ids := make([]uuid.UUID, 10)
	results := make(map[uuid.UUID]forecast.Result, len(ids))
	for i := range ids {
		ids[i] = uuid.New()
		results[ids[i]] = resultWith(1000, int64(i*100))
	}
	boom := errors.New("timeout")
	forecaster := &fakeForecaster{results: results, errs: map[uuid.UUID]error{ids[3]: boom}}

	monitor := New(forecaster, fakeCompanies{ids: ids}, &recordingPublisher{}, quietLogger(), Options{Concurrency: 3})

	assessments, err := monitor.Evaluate(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, assessments, len(ids))

	for i, assessment := range assessments {
		assert.Equal(t, ids[i], assessment.CompanyID)
		if i == 3 {
			assert.ErrorIs(t, assessment.Err, boom)
			continue
		}
		assert.NoError(t, assessment.Err)
		assert.Equal(t, i < 5, assessment.AtRisk, "company %d", i)
	}
}

func TestEvaluateListError(t *testing.T) {
	monitor := New(&fakeForecaster{}, fakeCompanies{err: errors.New("no db")}, &recordingPublisher{}, quietLogger(), Options{})

	_, err := monitor.Evaluate(context.Background(), 30)
	assert.Error(t, err)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	monitor := New(&fakeForecaster{}, fakeCompanies{}, &recordingPublisher{}, quietLogger(), Options{})

	assert.Error(t, monitor.Start("not a schedule", time.UTC))
}

// TestStartStop проверяет повторный запуск и остановку расписания.
func TestStartStop(t *testing.T) {
	monitor := New(&fakeForecaster{}, fakeCompanies{}, &recordingPublisher{}, quietLogger(), Options{})

	require.NoError(t, monitor.Start("0 7 * * *", nil))
	assert.Error(t, monitor.Start("0 7 * * *", nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, monitor.Stop(ctx))
	require.NoError(t, monitor.Stop(ctx))
}
