package forecast

import "github.com/shopspring/decimal"

// RiskRatio is the share of the current balance below which the realistic
// balance at the horizon is considered at risk.
var RiskRatio = decimal.RequireFromString("0.5")

type Summary struct {
	CurrentBalance         decimal.Decimal
	TotalInflow            decimal.Decimal
	TotalOutflow           decimal.Decimal
	NetOptimisticAtHorizon decimal.Decimal
	NetRealisticAtHorizon  decimal.Decimal
	Gap                    decimal.Decimal
	ReceivableCount        int
	PayableCount           int
}

// Summarize сводит ряд к итоговым показателям. Итоги по притоку и оттоку
// берутся по всем ожидающим счетам независимо от горизонта.
func Summarize(series Series, balance BankPosition, receivables []Receivable, payables []Payable) Summary {
	summary := Summary{
		CurrentBalance:         balance.CurrentBalance,
		TotalInflow:            decimal.Zero,
		TotalOutflow:           decimal.Zero,
		NetOptimisticAtHorizon: balance.CurrentBalance,
		NetRealisticAtHorizon:  balance.CurrentBalance,
	}

	for _, invoice := range receivables {
		if invoice.Status != StatusPending {
			continue
		}
		summary.TotalInflow = summary.TotalInflow.Add(amountOf(invoice.Amount))
		summary.ReceivableCount++
	}

	for _, invoice := range payables {
		if invoice.Status != StatusPending {
			continue
		}
		summary.TotalOutflow = summary.TotalOutflow.Add(amountOf(invoice.Amount))
		summary.PayableCount++
	}

	if len(series) > 0 {
		last := series[len(series)-1]
		summary.NetOptimisticAtHorizon = last.NetOptimisticBalance
		summary.NetRealisticAtHorizon = last.NetRealisticBalance
	}

	summary.Gap = summary.NetOptimisticAtHorizon.Sub(summary.NetRealisticAtHorizon)
	return summary
}

// AtRisk сообщает, что реалистичный остаток на горизонте меньше половины
// текущего баланса.
func (s Summary) AtRisk() bool {
	return s.NetRealisticAtHorizon.LessThan(s.CurrentBalance.Mul(RiskRatio))
}
