package forecast

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInputs() Inputs {
	punctual := uuid.New()
	late := uuid.New()
	unknown := uuid.New()
	issued := testToday.AddDays(-60)

	return Inputs{
		Today:   testToday,
		Balance: balance(80000),
		Receivables: []Receivable{
			receivableDue(punctual, 4, 12000),
			receivableDue(late, 9, 8000),
			receivableDue(unknown, 1, 3000),
			receivableDue(late, 45, 1000),
		},
		Payables: []Payable{
			payableDue(6, 15000),
			payableDue(20, 22000),
		},
		History: []PaymentRecord{
			{CustomerID: punctual, IssueDate: issued, PaidDate: issued.AddDays(1)},
			{CustomerID: late, IssueDate: issued, PaidDate: issued.AddDays(12)},
			{CustomerID: late, IssueDate: issued, PaidDate: issued.AddDays(8)},
		},
		HorizonDays:      30,
		FallbackDaysLate: DefaultFallbackDaysLate,
	}
}

// TestComputeDeterministic проверяет, что повторный расчет дает тот же результат.
func TestComputeDeterministic(t *testing.T) {
	in := sampleInputs()
	first, err := Compute(in)
	require.NoError(t, err)

	second, err := Compute(in)
	require.NoError(t, err)

	require.Len(t, second.Series, len(first.Series))
	for i := range first.Series {
		assert.Equal(t, first.Series[i].Date, second.Series[i].Date)
		assert.True(t, first.Series[i].NetRealisticBalance.Equal(second.Series[i].NetRealisticBalance))
		assert.True(t, first.Series[i].NetOptimisticBalance.Equal(second.Series[i].NetOptimisticBalance))
	}
	assert.True(t, first.Summary.Gap.Equal(second.Summary.Gap))
}

// TestComputeRiskScenario проверяет сценарий кассового разрыва от крупного платежа.
func TestComputeRiskScenario(t *testing.T) {
	result, err := Compute(Inputs{
		Today:            testToday,
		Balance:          balance(100000),
		Payables:         []Payable{payableDue(10, 60000)},
		HorizonDays:      30,
		FallbackDaysLate: DefaultFallbackDaysLate,
	})
	require.NoError(t, err)

	assertDecimal(t, 40000, result.Summary.NetRealisticAtHorizon)
	assertDecimal(t, 40000, result.Summary.NetOptimisticAtHorizon)
	assert.True(t, result.Summary.AtRisk())
}

// TestComputeEarlyPayersGiveNegativeGap проверяет, что ранние плательщики делают разрыв отрицательным.
func TestComputeEarlyPayersGiveNegativeGap(t *testing.T) {
	customer := uuid.New()
	issued := testToday.AddDays(-30)

	result, err := Compute(Inputs{
		Today:       testToday,
		Balance:     balance(1000),
		Receivables: []Receivable{receivableDue(customer, 32, 500)},
		History: []PaymentRecord{
			{CustomerID: customer, IssueDate: issued, PaidDate: issued.AddDays(-3)},
		},
		HorizonDays:      30,
		FallbackDaysLate: DefaultFallbackDaysLate,
	})
	require.NoError(t, err)

	assert.Equal(t, -3, result.Profile[customer])
	assertDecimal(t, 1000, result.Summary.NetOptimisticAtHorizon)
	assertDecimal(t, 1500, result.Summary.NetRealisticAtHorizon)
	assert.True(t, result.Summary.Gap.IsNegative())
}

// TestComputeUsesHistoryProfile проверяет, что профиль задержек строится из истории.
func TestComputeUsesHistoryProfile(t *testing.T) {
	result, err := Compute(sampleInputs())
	require.NoError(t, err)

	require.Len(t, result.Series, 31)
	assert.Len(t, result.Profile, 2)

	// punctual: 1 day, late: 10 days, unknown: fallback
	last := result.Series[30]
	assertDecimal(t, 80000+12000+8000+3000-15000-22000, last.NetOptimisticBalance)
	assertDecimal(t, 80000+12000+8000+3000-15000-22000, last.NetRealisticBalance)
	assertDecimal(t, 80000+12000+3000-15000, result.Series[18].NetRealisticBalance)
	assertDecimal(t, 80000+12000+8000+3000-15000, result.Series[19].NetRealisticBalance)
	assertDecimal(t, 80000+12000+8000+3000-15000, result.Series[9].NetOptimisticBalance)

	assert.Equal(t, 4, result.Summary.ReceivableCount)
	assertDecimal(t, 24000, result.Summary.TotalInflow)
}

func TestComputeInvalidHorizon(t *testing.T) {
	in := sampleInputs()
	in.HorizonDays = 0

	_, err := Compute(in)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestComputeSpansMonthBoundary(t *testing.T) {
	in := sampleInputs()
	in.Today = NewDate(2024, time.February, 20)
	in.Receivables = nil
	in.Payables = nil

	result, err := Compute(in)
	require.NoError(t, err)

	assert.Equal(t, "2024-02-29", result.Series[9].Date.String())
	assert.Equal(t, "2024-03-21", result.Series[30].Date.String())
}
