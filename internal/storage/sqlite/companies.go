package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/reportgen/internal/core"
	"github.com/sandevgo/reportgen/pkg/log"
	"github.com/sandevgo/reportgen/pkg/sqlite"
)

type CompaniesRepo struct {
	db      *sql.DB
	timeout time.Duration
}

type RepoOption func(*CompaniesRepo)

// WithTimeout bounds every store call. Zero leaves the caller's deadline alone.
func WithTimeout(d time.Duration) RepoOption {
	return func(r *CompaniesRepo) {
		r.timeout = d
	}
}

func NewCompaniesRepo(db *sql.DB, opts ...RepoOption) *CompaniesRepo {
	r := &CompaniesRepo{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CompaniesRepo) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// AddCompany stores a copy of company under a freshly generated id. The partition key
// (company name) must not already hold a record.
func (r *CompaniesRepo) AddCompany(ctx context.Context, company *core.Company) (*core.Company, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if company == nil || company.CompanyName == "" {
		return nil, fmt.Errorf("%w: company name is required", core.ErrInvalidInput)
	}

	record := *company
	record.ID = uuid.NewString()

	doc, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal company: %v", core.ErrInvalidInput, err)
	}

	query := `INSERT INTO companies (id, company_name, document) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, record.ID, record.CompanyName, string(doc)); err != nil {
		if sqlite.IsUniqueViolation(err) {
			log.FromCtx(ctx).Warn().Str("company", record.CompanyName).Msg("partition already holds a record")
			return nil, fmt.Errorf("%w: %q", core.ErrDuplicatePartition, record.CompanyName)
		}
		return nil, fmt.Errorf("failed to insert company: %w: %w", core.ErrUpstream, err)
	}

	return &record, nil
}

// GetByID reads a record by id within its partition. An empty partitionKey searches
// across partitions.
func (r *CompaniesRepo) GetByID(ctx context.Context, id, partitionKey string) (*core.Company, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if id == "" {
		return nil, fmt.Errorf("%w: company id is required", core.ErrInvalidInput)
	}

	query := `SELECT id, company_name, document FROM companies WHERE id = ?`
	args := []any{id}
	if partitionKey != "" {
		query += ` AND company_name = ?`
		args = append(args, partitionKey)
	}

	return r.queryOne(ctx, query, args...)
}

// GetByName returns the first record in the name's partition.
func (r *CompaniesRepo) GetByName(ctx context.Context, name string) (*core.Company, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if name == "" {
		return nil, fmt.Errorf("%w: company name is required", core.ErrInvalidInput)
	}

	query := `SELECT id, company_name, document FROM companies WHERE company_name = ? ORDER BY created_at LIMIT 1`
	return r.queryOne(ctx, query, name)
}

func (r *CompaniesRepo) GetIDNameMap(ctx context.Context) (map[string]string, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, company_name FROM companies`)
	if err != nil {
		return nil, fmt.Errorf("failed to query directory: %w: %w", core.ErrUpstream, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan directory row: %w: %w", core.ErrUpstream, err)
		}
		out[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstream, err)
	}

	return out, nil
}

func (r *CompaniesRepo) ListAll(ctx context.Context) ([]core.Company, error) {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, company_name, document FROM companies ORDER BY company_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w: %w", core.ErrUpstream, err)
	}
	defer rows.Close()

	var companies []core.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUpstream, err)
	}

	return companies, nil
}

func (r *CompaniesRepo) queryOne(ctx context.Context, query string, args ...any) (*core.Company, error) {
	company, err := scanCompany(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrCompanyNotFound
	}
	return company, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCompany(row scanner) (*core.Company, error) {
	var id, name, doc string
	if err := row.Scan(&id, &name, &doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan company: %w: %w", core.ErrUpstream, err)
	}

	var company core.Company
	if err := json.Unmarshal([]byte(doc), &company); err != nil {
		return nil, fmt.Errorf("failed to decode company %s: %w: %w", id, core.ErrUpstream, err)
	}

	// Columns are authoritative
	company.ID = id
	company.CompanyName = name

	return &company, nil
}
