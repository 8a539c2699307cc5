package forecast

import "github.com/google/uuid"

type PaymentRecord struct {
	CustomerID uuid.UUID
	IssueDate  Date
	PaidDate   Date
}

// LatenessProfile maps a customer to the average number of days between
// invoice issue and payment. Customers without history are absent.
type LatenessProfile map[uuid.UUID]int

// DaysLate возвращает среднюю задержку клиента или fallback, если истории нет.
func (p LatenessProfile) DaysLate(customerID uuid.UUID, fallback int) int {
	if days, ok := p[customerID]; ok {
		return days
	}
	return fallback
}

// AnalyzeLateness считает среднюю задержку оплаты по каждому клиенту.
// Записи без даты выставления или оплаты пропускаются. Отрицательные
// задержки (ранняя оплата) сохраняются как есть.
func AnalyzeLateness(history []PaymentRecord) LatenessProfile {
	type tally struct {
		sum   int
		count int
	}

	tallies := make(map[uuid.UUID]*tally)
	for _, record := range history {
		if record.IssueDate.IsZero() || record.PaidDate.IsZero() {
			continue
		}

		t, ok := tallies[record.CustomerID]
		if !ok {
			t = &tally{}
			tallies[record.CustomerID] = t
		}
		t.sum += DaysBetween(record.IssueDate, record.PaidDate)
		t.count++
	}

	profile := make(LatenessProfile, len(tallies))
	for customerID, t := range tallies {
		// integer division truncates toward zero
		profile[customerID] = t.sum / t.count
	}

	return profile
}

// HistoryFromReceivables отбирает оплаченные счета в формат истории платежей.
func HistoryFromReceivables(invoices []Receivable) []PaymentRecord {
	history := make([]PaymentRecord, 0, len(invoices))
	for _, invoice := range invoices {
		if invoice.Status != StatusPaid {
			continue
		}
		history = append(history, PaymentRecord{
			CustomerID: invoice.CustomerID,
			IssueDate:  invoice.IssueDate,
			PaidDate:   invoice.PaidDate,
		})
	}
	return history
}
