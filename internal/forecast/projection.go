package forecast

import "github.com/shopspring/decimal"

type Point struct {
	Date                 Date
	InflowBalance        decimal.Decimal
	OutflowBalance       decimal.Decimal
	NetOptimisticBalance decimal.Decimal
	NetRealisticBalance  decimal.Decimal
}

// Series is the chronological list of daily points, day 0 being today.
type Series []Point

type ProjectionInput struct {
	Today            Date
	Balance          BankPosition
	Receivables      []Receivable
	Payables         []Payable
	Profile          LatenessProfile
	HorizonDays      int
	FallbackDaysLate int
}

// Project строит дневной ряд на HorizonDays дней вперед (HorizonDays+1 точка).
// Смещения сроков считаются один раз относительно Today; суммы, попадающие
// за пределы горизонта, в ряд не входят.
func Project(in ProjectionInput) (Series, error) {
	if in.HorizonDays <= 0 {
		return nil, ErrInvalidHorizon
	}

	days := in.HorizonDays + 1
	optimisticIn := make([]decimal.Decimal, days)
	realisticIn := make([]decimal.Decimal, days)
	outflow := make([]decimal.Decimal, days)

	for _, invoice := range in.Receivables {
		if invoice.Status != StatusPending || invoice.DueDate.IsZero() {
			continue
		}
		amount := amountOf(invoice.Amount)

		dueOffset := DaysBetween(in.Today, invoice.DueDate)
		if inHorizon(dueOffset, in.HorizonDays) {
			optimisticIn[dueOffset] = optimisticIn[dueOffset].Add(amount)
		}

		realisticOffset := dueOffset + in.Profile.DaysLate(invoice.CustomerID, in.FallbackDaysLate)
		if inHorizon(realisticOffset, in.HorizonDays) {
			realisticIn[realisticOffset] = realisticIn[realisticOffset].Add(amount)
		}
	}

	for _, invoice := range in.Payables {
		if invoice.Status != StatusPending || invoice.DueDate.IsZero() {
			continue
		}

		dueOffset := DaysBetween(in.Today, invoice.DueDate)
		if inHorizon(dueOffset, in.HorizonDays) {
			outflow[dueOffset] = outflow[dueOffset].Add(amountOf(invoice.Amount))
		}
	}

	start := in.Balance.CurrentBalance
	inflowBalance := start
	outflowBalance := start
	netOptimistic := start
	netRealistic := start

	series := make(Series, 0, days)
	for i := 0; i < days; i++ {
		inflowBalance = inflowBalance.Add(optimisticIn[i])
		outflowBalance = outflowBalance.Sub(outflow[i])
		netOptimistic = netOptimistic.Add(optimisticIn[i]).Sub(outflow[i])
		netRealistic = netRealistic.Add(realisticIn[i]).Sub(outflow[i])

		// round only what is emitted, the running totals keep full precision
		series = append(series, Point{
			Date:                 in.Today.AddDays(i),
			InflowBalance:        inflowBalance.Round(0),
			OutflowBalance:       outflowBalance.Round(0),
			NetOptimisticBalance: netOptimistic.Round(0),
			NetRealisticBalance:  netRealistic.Round(0),
		})
	}

	return series, nil
}

func inHorizon(offset, horizon int) bool {
	return offset >= 0 && offset <= horizon
}
