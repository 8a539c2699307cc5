package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/cashflow-forecast/internal/forecast"
	"example.com/cashflow-forecast/internal/models"
)

// ForecastRepository reads the inputs of a company's cash-flow forecast.
// Amounts are selected as text and parsed with forecast.ParseAmount, since
// a NUMERIC column may hold NaN.
type ForecastRepository struct {
	db *pgxpool.Pool
}

// NewForecastRepository создает репозиторий данных для прогноза.
func NewForecastRepository(db *pgxpool.Pool) *ForecastRepository {
	return &ForecastRepository{db: db}
}

// BankPosition возвращает суммарный остаток по счетам компании. Компания без
// счетов получает нулевой остаток.
func (r *ForecastRepository) BankPosition(ctx context.Context, companyID uuid.UUID) (forecast.BankPosition, error) {
	var raw string
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(current_balance), 0)::text
		 FROM bank_accounts
		 WHERE company_id = $1`,
		companyID,
	).Scan(&raw)
	if err != nil {
		return forecast.BankPosition{}, err
	}

	amount := forecast.ParseAmount(raw)
	if !amount.Valid {
		return forecast.BankPosition{CurrentBalance: decimal.Zero}, nil
	}
	return forecast.BankPosition{CurrentBalance: amount.Decimal}, nil
}

// PendingReceivables возвращает неоплаченные счета клиентов по сроку оплаты.
func (r *ForecastRepository) PendingReceivables(ctx context.Context, companyID uuid.UUID) ([]forecast.Receivable, error) {
	return r.receivables(ctx, companyID, forecast.StatusPending)
}

// PaidReceivableHistory возвращает историю оплат клиентов для анализа задержек.
func (r *ForecastRepository) PaidReceivableHistory(ctx context.Context, companyID uuid.UUID) ([]forecast.PaymentRecord, error) {
	invoices, err := r.receivables(ctx, companyID, forecast.StatusPaid)
	if err != nil {
		return nil, err
	}
	return forecast.HistoryFromReceivables(invoices), nil
}

func (r *ForecastRepository) receivables(ctx context.Context, companyID uuid.UUID, status forecast.Status) ([]forecast.Receivable, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, customer_id, amount::text, issue_date, due_date, paid_date, status
		 FROM receivable_invoices
		 WHERE company_id = $1 AND status = $2
		 ORDER BY due_date NULLS LAST, id`,
		companyID, string(status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]forecast.Receivable, 0)
	for rows.Next() {
		var invoice forecast.Receivable
		var amount *string
		var issueDate, dueDate, paidDate *time.Time
		var statusValue string
		if err := rows.Scan(&invoice.ID, &invoice.CustomerID, &amount, &issueDate, &dueDate, &paidDate, &statusValue); err != nil {
			return nil, err
		}

		invoice.Amount = parseNullableAmount(amount)
		invoice.IssueDate = dateOf(issueDate)
		invoice.DueDate = dateOf(dueDate)
		invoice.PaidDate = dateOf(paidDate)
		invoice.Status = forecast.Status(statusValue)
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return invoices, nil
}

// PendingPayables возвращает неоплаченные счета поставщиков по сроку оплаты.
func (r *ForecastRepository) PendingPayables(ctx context.Context, companyID uuid.UUID) ([]forecast.Payable, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, supplier_id, amount::text, due_date, status
		 FROM payable_invoices
		 WHERE company_id = $1 AND status = $2
		 ORDER BY due_date NULLS LAST, id`,
		companyID, string(forecast.StatusPending),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]forecast.Payable, 0)
	for rows.Next() {
		var invoice forecast.Payable
		var amount *string
		var dueDate *time.Time
		var statusValue string
		if err := rows.Scan(&invoice.ID, &invoice.SupplierID, &amount, &dueDate, &statusValue); err != nil {
			return nil, err
		}

		invoice.Amount = parseNullableAmount(amount)
		invoice.DueDate = dateOf(dueDate)
		invoice.Status = forecast.Status(statusValue)
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return invoices, nil
}

// Customers возвращает клиентов компании, отсортированных по имени.
func (r *ForecastRepository) Customers(ctx context.Context, companyID uuid.UUID) ([]models.Customer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, company_id, name, email, created_at
		 FROM customers
		 WHERE company_id = $1
		 ORDER BY name, id`,
		companyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]models.Customer, 0)
	for rows.Next() {
		var customer models.Customer
		if err := rows.Scan(&customer.ID, &customer.CompanyID, &customer.Name, &customer.Email, &customer.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

func parseNullableAmount(raw *string) decimal.NullDecimal {
	if raw == nil {
		return decimal.NullDecimal{}
	}
	return forecast.ParseAmount(*raw)
}

func dateOf(value *time.Time) forecast.Date {
	if value == nil {
		return forecast.Date{}
	}
	return forecast.DateOf(*value)
}
