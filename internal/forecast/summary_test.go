package forecast

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestSummarizeTotalsIgnoreHorizon проверяет, что итоги включают счета за горизонтом.
func TestSummarizeTotalsIgnoreHorizon(t *testing.T) {
	customer := uuid.New()
	receivables := []Receivable{
		receivableDue(customer, 2, 300),
		receivableDue(customer, 400, 700),
	}
	paid := receivableDue(customer, 1, 999)
	paid.Status = StatusPaid
	receivables = append(receivables, paid)

	broken := payableDue(3, 0)
	broken.Amount = ParseAmount("oops")
	payables := []Payable{payableDue(5, 200), payableDue(90, 50), broken}

	series, err := Project(ProjectionInput{
		Today:       testToday,
		Balance:     balance(1000),
		Receivables: receivables,
		Payables:    payables,
		Profile:     LatenessProfile{customer: 0},
		HorizonDays: 30,
	})
	assert.NoError(t, err)

	summary := Summarize(series, balance(1000), receivables, payables)

	assertDecimal(t, 1000, summary.CurrentBalance)
	assertDecimal(t, 1000, summary.TotalInflow)
	assertDecimal(t, 250, summary.TotalOutflow)
	assert.Equal(t, 2, summary.ReceivableCount)
	assert.Equal(t, 3, summary.PayableCount)
	assertDecimal(t, 1100, summary.NetOptimisticAtHorizon)
	assertDecimal(t, 1100, summary.NetRealisticAtHorizon)
	assert.True(t, summary.Gap.IsZero())
}

func TestSummarizeEmptySeriesFallsBackToBalance(t *testing.T) {
	summary := Summarize(nil, balance(42), nil, nil)

	assertDecimal(t, 42, summary.NetOptimisticAtHorizon)
	assertDecimal(t, 42, summary.NetRealisticAtHorizon)
	assert.True(t, summary.TotalInflow.IsZero())
	assert.True(t, summary.TotalOutflow.IsZero())
	assert.False(t, summary.AtRisk())
}

// TestSummaryAtRiskThreshold проверяет строгую границу в половину текущего баланса.
func TestSummaryAtRiskThreshold(t *testing.T) {
	cases := []struct {
		name      string
		realistic string
		atRisk    bool
	}{
		{name: "well above", realistic: "90000", atRisk: false},
		{name: "exactly half", realistic: "50000", atRisk: false},
		{name: "just below half", realistic: "49999", atRisk: true},
		{name: "negative", realistic: "-10", atRisk: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			summary := Summary{
				CurrentBalance:        decimal.NewFromInt(100000),
				NetRealisticAtHorizon: decimal.RequireFromString(tc.realistic),
			}
			assert.Equal(t, tc.atRisk, summary.AtRisk())
		})
	}
}

func TestSummaryAtRiskWithNegativeBalance(t *testing.T) {
	summary := Summary{
		CurrentBalance:        decimal.NewFromInt(-1000),
		NetRealisticAtHorizon: decimal.NewFromInt(-600),
	}
	// порог -500
	assert.True(t, summary.AtRisk())

	summary.NetRealisticAtHorizon = decimal.NewFromInt(-400)
	assert.False(t, summary.AtRisk())
}
