package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/cashflow-forecast/internal/models"
)

type AdminRepository struct {
	db *pgxpool.Pool
}

// NewAdminRepository создает репозиторий для админских запросов.
func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

// ListCompanies возвращает компании с числом пользователей и открытых счетов.
func (r *AdminRepository) ListCompanies(ctx context.Context, limit, offset int) ([]models.CompanyOverview, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.name, c.created_at, c.updated_at,
		        (SELECT COUNT(*) FROM users u WHERE u.company_id = c.id),
		        (SELECT COUNT(*) FROM receivable_invoices ri WHERE ri.company_id = c.id AND ri.status = 'pending'),
		        (SELECT COUNT(*) FROM payable_invoices pi WHERE pi.company_id = c.id AND pi.status = 'pending'),
		        (SELECT COUNT(*) FROM bank_accounts b WHERE b.company_id = c.id)
		 FROM companies c
		 ORDER BY c.created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := make([]models.CompanyOverview, 0)
	for rows.Next() {
		var row models.CompanyOverview
		if err := rows.Scan(
			&row.ID,
			&row.Name,
			&row.CreatedAt,
			&row.UpdatedAt,
			&row.UserCount,
			&row.ReceivableCount,
			&row.PayableCount,
			&row.BankAccountCount,
		); err != nil {
			return nil, err
		}
		companies = append(companies, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return companies, nil
}

// CountCompanies возвращает общее количество компаний.
func (r *AdminRepository) CountCompanies(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CompanyIDs возвращает идентификаторы всех компаний для фоновой проверки рисков.
func (r *AdminRepository) CompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM companies ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}
