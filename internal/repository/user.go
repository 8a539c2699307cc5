package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/cashflow-forecast/internal/models"
)

const userColumns = `id, company_id, email, password_hash, name, created_at, updated_at`

type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository создает репозиторий пользователей.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithCompany регистрирует компанию и ее первого пользователя в одной транзакции.
func (r *UserRepository) CreateWithCompany(ctx context.Context, companyName, email, passwordHash string, name *string) (models.User, models.Company, error) {
	var user models.User
	var company models.Company

	if strings.TrimSpace(companyName) == "" || strings.TrimSpace(email) == "" || passwordHash == "" {
		return user, company, ErrInvalid
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return user, company, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx,
		`INSERT INTO companies (id, name)
		 VALUES ($1, $2)
		 RETURNING id, name, created_at, updated_at`,
		uuid.New(), companyName,
	).Scan(&company.ID, &company.Name, &company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		return user, company, err
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO users (id, company_id, email, password_hash, name)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		uuid.New(), company.ID, email, passwordHash, name,
	)
	if user, err = scanUser(row); err != nil {
		if isUniqueViolation(err) {
			return user, company, ErrConflict
		}
		return user, company, err
	}

	if err := tx.Commit(ctx); err != nil {
		return user, company, err
	}

	return user, company, nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE email = $1`,
		email,
	)
	return scanUserOrNotFound(row)
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 WHERE id = $1`,
		id,
	)
	return scanUserOrNotFound(row)
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.CompanyID, &user.Email, &user.PasswordHash, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

func scanUserOrNotFound(row pgx.Row) (models.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, ErrNotFound
		}
		return user, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
