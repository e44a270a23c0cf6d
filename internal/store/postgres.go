package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/markjakearzadon/rentledger-receipts/internal/models"
)

// paymentByIDQuery matches the key column against $1 uncast; Postgres infers $1 as the
// column's type, so an id that is not valid for that type fails with 22P02.
const paymentByIDQuery = `
	SELECT
		p.id::text, p.user_id::text, p.tenant_id::text, p.amount::float8, p.payment_method,
		to_char(p.payment_date, 'YYYY-MM-DD'),
		t.id::text, t.first_name, t.last_name, t.email, t.unit_number, t.property_id::text,
		pr.id::text, pr.name, pr.address
	FROM payments p
	LEFT JOIN tenants t ON t.id = p.tenant_id
	LEFT JOIN properties pr ON pr.id = t.property_id
	WHERE p.id = $1
	LIMIT 1
`

type PostgresPaymentStore struct {
	db *pgxpool.Pool
}

func NewPostgresPaymentStore(db *pgxpool.Pool) *PostgresPaymentStore {
	return &PostgresPaymentStore{db: db}
}

func (s *PostgresPaymentStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.Payment
	var tenantID, firstName, lastName, email, unitNumber, propertyRef *string
	var propertyID, propertyName, propertyAddr *string
	err := s.db.QueryRow(ctx, paymentByIDQuery, id).Scan(
		&p.ID, &p.UserID, &p.TenantID, &p.Amount, &p.PaymentMethod, &p.PaymentDate,
		&tenantID, &firstName, &lastName, &email, &unitNumber, &propertyRef,
		&propertyID, &propertyName, &propertyAddr,
	)
	if err != nil {
		if noSuchPayment(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}

	if tenantID != nil {
		p.Tenant = &models.Tenant{
			ID:         *tenantID,
			FirstName:  deref(firstName),
			LastName:   deref(lastName),
			Email:      deref(email),
			UnitNumber: deref(unitNumber),
			PropertyID: deref(propertyRef),
		}
	}
	if propertyID != nil {
		p.Property = &models.Property{
			ID:      *propertyID,
			Name:    deref(propertyName),
			Address: deref(propertyAddr),
		}
	}
	return &p, nil
}

type PostgresReceiptStore struct {
	db *pgxpool.Pool
}

func NewPostgresReceiptStore(db *pgxpool.Pool) *PostgresReceiptStore {
	return &PostgresReceiptStore{db: db}
}

// EnsureIndexes creates the receipts table and its payment_id uniqueness constraint.
func (s *PostgresReceiptStore) EnsureIndexes(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS receipts (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			payment_id     TEXT NOT NULL,
			tenant_id      TEXT NOT NULL,
			receipt_number TEXT NOT NULL,
			amount         NUMERIC(12,2) NOT NULL,
			payment_method TEXT NOT NULL,
			payment_date   DATE NOT NULL,
			sent_to_email  TEXT,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS receipts_payment_id_key ON receipts (payment_id)`,
		`CREATE INDEX IF NOT EXISTS receipts_user_created_idx ON receipts (user_id, created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate receipts: %w", err)
		}
	}
	return nil
}

const receiptColumns = `id, user_id, payment_id, tenant_id, receipt_number, amount::float8,
	payment_method, to_char(payment_date, 'YYYY-MM-DD'), sent_to_email, created_at`

func scanReceipt(row pgx.Row) (*models.Receipt, error) {
	var (
		rc    models.Receipt
		email *string
	)
	if err := row.Scan(
		&rc.ID, &rc.UserID, &rc.PaymentID, &rc.TenantID, &rc.ReceiptNumber, &rc.Amount,
		&rc.PaymentMethod, &rc.PaymentDate, &email, &rc.CreatedAt,
	); err != nil {
		return nil, err
	}
	rc.SentToEmail = deref(email)
	return &rc, nil
}

func (s *PostgresReceiptStore) GetByPaymentID(ctx context.Context, paymentID string) (*models.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE payment_id = $1`
	rc, err := scanReceipt(s.db.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get receipt by payment: %w", err)
	}
	return rc, nil
}

// InsertIfAbsent relies on ON CONFLICT: a conflicting row makes RETURNING yield nothing.
func (s *PostgresReceiptStore) InsertIfAbsent(ctx context.Context, rec *models.Receipt) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO receipts (
			id, user_id, payment_id, tenant_id, receipt_number, amount,
			payment_method, payment_date, sent_to_email, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::text::date, $9, $10)
		ON CONFLICT (payment_id) DO NOTHING
		RETURNING id
	`
	var id string
	err := s.db.QueryRow(ctx, query,
		rec.ID, rec.UserID, rec.PaymentID, rec.TenantID, rec.ReceiptNumber, rec.Amount,
		rec.PaymentMethod, rec.PaymentDate, nullIfEmpty(rec.SentToEmail), rec.CreatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

func (s *PostgresReceiptStore) ListByUser(ctx context.Context, userID string, limit int) ([]models.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `SELECT ` + receiptColumns + `
		FROM receipts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := s.db.Query(ctx, query, userID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	receipts := []models.Receipt{}
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, *rc)
	}
	return receipts, rows.Err()
}

// noSuchPayment reports a missing row, or an id that cannot be a key of the payments table.
func noSuchPayment(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02" // invalid_text_representation
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
