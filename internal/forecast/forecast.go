// Package forecast проецирует денежную позицию компании на N дней вперед
// в двух сценариях: оптимистичном (все платят в срок) и реалистичном
// (клиенты платят с исторической задержкой).
package forecast

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultHorizonDays      = 30
	DefaultFallbackDaysLate = 15
)

var ErrInvalidHorizon = errors.New("forecast horizon must be greater than 0")

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

type BankPosition struct {
	CurrentBalance decimal.Decimal
}

type Receivable struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Amount     decimal.NullDecimal
	DueDate    Date
	IssueDate  Date
	PaidDate   Date
	Status     Status
}

type Payable struct {
	ID         uuid.UUID
	SupplierID uuid.UUID
	Amount     decimal.NullDecimal
	DueDate    Date
	Status     Status
}

type Inputs struct {
	Today            Date
	Balance          BankPosition
	Receivables      []Receivable
	Payables         []Payable
	History          []PaymentRecord
	HorizonDays      int
	FallbackDaysLate int
}

type Result struct {
	Series  Series
	Summary Summary
	Profile LatenessProfile
}

// Compute прогоняет полный конвейер: анализ задержек, дневная проекция и
// сводка. Функция чистая: одинаковые входные данные дают одинаковый результат.
func Compute(in Inputs) (Result, error) {
	profile := AnalyzeLateness(in.History)

	series, err := Project(ProjectionInput{
		Today:            in.Today,
		Balance:          in.Balance,
		Receivables:      in.Receivables,
		Payables:         in.Payables,
		Profile:          profile,
		HorizonDays:      in.HorizonDays,
		FallbackDaysLate: in.FallbackDaysLate,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Series:  series,
		Summary: Summarize(series, in.Balance, in.Receivables, in.Payables),
		Profile: profile,
	}, nil
}
