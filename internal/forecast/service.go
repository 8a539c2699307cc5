package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Source reads a company's forecast inputs from storage.
type Source interface {
	BankPosition(ctx context.Context, companyID uuid.UUID) (BankPosition, error)
	PendingReceivables(ctx context.Context, companyID uuid.UUID) ([]Receivable, error)
	PendingPayables(ctx context.Context, companyID uuid.UUID) ([]Payable, error)
	PaidReceivableHistory(ctx context.Context, companyID uuid.UUID) ([]PaymentRecord, error)
}

type Settings struct {
	HorizonDays      int
	MaxHorizonDays   int
	FallbackDaysLate int
	Location         *time.Location
	FetchTimeout     time.Duration
}

type Service struct {
	source   Source
	settings Settings
	logger   *slog.Logger
	now      func() time.Time
}

// NewService создает сервис прогноза поверх источника данных.
func NewService(source Source, settings Settings, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.HorizonDays <= 0 {
		settings.HorizonDays = DefaultHorizonDays
	}
	if settings.MaxHorizonDays < settings.HorizonDays {
		settings.MaxHorizonDays = settings.HorizonDays
	}

	return &Service{
		source:   source,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// Today возвращает текущий календарный день в настроенной временной зоне.
func (s *Service) Today() Date {
	return DateOf(s.now().In(s.settings.Location))
}

// ResolveHorizon подставляет горизонт по умолчанию и ограничивает максимум.
func (s *Service) ResolveHorizon(requested int) (int, error) {
	switch {
	case requested < 0:
		return 0, ErrInvalidHorizon
	case requested == 0:
		return s.settings.HorizonDays, nil
	case requested > s.settings.MaxHorizonDays:
		return s.settings.MaxHorizonDays, nil
	default:
		return requested, nil
	}
}

// Forecast загружает данные компании и считает прогноз на заданный горизонт.
func (s *Service) Forecast(ctx context.Context, companyID uuid.UUID, horizon int) (Result, error) {
	horizon, err := s.ResolveHorizon(horizon)
	if err != nil {
		return Result{}, err
	}

	inputs, err := s.load(ctx, companyID)
	if err != nil {
		return Result{}, err
	}
	inputs.Today = s.Today()
	inputs.HorizonDays = horizon
	inputs.FallbackDaysLate = s.settings.FallbackDaysLate

	result, err := Compute(inputs)
	if err != nil {
		return Result{}, err
	}

	s.logger.Debug("forecast computed",
		slog.String("company_id", companyID.String()),
		slog.Int("horizon", horizon),
		slog.Int("receivables", result.Summary.ReceivableCount),
		slog.Int("payables", result.Summary.PayableCount),
		slog.Bool("at_risk", result.Summary.AtRisk()),
	)

	return result, nil
}

// Lateness возвращает профиль задержек оплаты по клиентам компании.
func (s *Service) Lateness(ctx context.Context, companyID uuid.UUID) (LatenessProfile, error) {
	ctx, cancel := s.fetchContext(ctx)
	defer cancel()

	history, err := s.source.PaidReceivableHistory(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load payment history: %w", err)
	}

	return AnalyzeLateness(history), nil
}

// FallbackDaysLate возвращает задержку для клиентов без истории.
func (s *Service) FallbackDaysLate() int {
	return s.settings.FallbackDaysLate
}

func (s *Service) load(ctx context.Context, companyID uuid.UUID) (Inputs, error) {
	ctx, cancel := s.fetchContext(ctx)
	defer cancel()

	var in Inputs
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		position, err := s.source.BankPosition(groupCtx, companyID)
		if err != nil {
			return fmt.Errorf("load bank position: %w", err)
		}
		in.Balance = position
		return nil
	})

	group.Go(func() error {
		receivables, err := s.source.PendingReceivables(groupCtx, companyID)
		if err != nil {
			return fmt.Errorf("load receivables: %w", err)
		}
		in.Receivables = receivables
		return nil
	})

	group.Go(func() error {
		payables, err := s.source.PendingPayables(groupCtx, companyID)
		if err != nil {
			return fmt.Errorf("load payables: %w", err)
		}
		in.Payables = payables
		return nil
	})

	group.Go(func() error {
		history, err := s.source.PaidReceivableHistory(groupCtx, companyID)
		if err != nil {
			return fmt.Errorf("load payment history: %w", err)
		}
		in.History = history
		return nil
	})

	if err := group.Wait(); err != nil {
		return Inputs{}, err
	}

	return in, nil
}

func (s *Service) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.settings.FetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.settings.FetchTimeout)
}
