package domain

import (
	"context"

	"github.com/agubarev/lowcode/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// PostgreSQLStore is a PostgreSQL-backed domain store
type PostgreSQLStore struct {
	db *pgxpool.Pool
}

// NewPostgreSQLStore returns a store backed by a given pool
func NewPostgreSQLStore(db *pgxpool.Pool) (Store, error) {
	if db == nil {
		return nil, ErrNilDatabase
	}

	return &PostgreSQLStore{db: db}, nil
}

const domainColumns = `id, slug, name, owner_user_id, description, industry, metadata, created_at, updated_at`

const applicationColumns = `id, domain_id, slug, name, description, owner_user_id, created_at, updated_at`

func scanDomain(row pgx.Row) (d Domain, err error) {
	err = row.Scan(
		&d.ID,
		&d.Slug,
		&d.Name,
		&d.OwnerUserID,
		&d.Description,
		&d.Industry,
		&d.Metadata,
		&d.CreatedAt,
		&d.UpdatedAt,
	)

	return d, err
}

func scanApplication(row pgx.Row) (a Application, err error) {
	err = row.Scan(
		&a.ID,
		&a.DomainID,
		&a.Slug,
		&a.Name,
		&a.Description,
		&a.OwnerUserID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (s *PostgreSQLStore) fetchDomain(ctx context.Context, q string, args ...interface{}) (Domain, error) {
	d, err := scanDomain(s.db.QueryRow(ctx, q, args...))
	switch {
	case err == nil:
		return d, nil
	case database.IsNoRows(err):
		return d, ErrDomainNotFound
	default:
		return d, database.Describe(err, "failed to fetch domain")
	}
}

func (s *PostgreSQLStore) fetchApplication(ctx context.Context, q string, args ...interface{}) (Application, error) {
	a, err := scanApplication(s.db.QueryRow(ctx, q, args...))
	switch {
	case err == nil:
		return a, nil
	case database.IsNoRows(err):
		return a, ErrApplicationNotFound
	default:
		return a, database.Describe(err, "failed to fetch application")
	}
}

// CreateDomain inserts a new domain
func (s *PostgreSQLStore) CreateDomain(ctx context.Context, d Domain) error {
	metadata := d.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	_, err := s.db.Exec(
		ctx,
		`INSERT INTO domain(`+domainColumns+`) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID,
		d.Slug,
		d.Name,
		d.OwnerUserID,
		d.Description,
		d.Industry,
		metadata,
		d.CreatedAt,
		d.UpdatedAt,
	)

	if _, ok := database.UniqueViolation(err); ok {
		return ErrDuplicateSlug
	}

	return database.Describe(err, "failed to insert domain")
}

func (s *PostgreSQLStore) FetchDomainByID(ctx context.Context, id string) (Domain, error) {
	return s.fetchDomain(ctx, `SELECT `+domainColumns+` FROM domain WHERE id = $1 LIMIT 1`, id)
}

func (s *PostgreSQLStore) FetchDomainBySlug(ctx context.Context, slug string) (Domain, error) {
	return s.fetchDomain(ctx, `SELECT `+domainColumns+` FROM domain WHERE slug = $1 LIMIT 1`, slug)
}

func (s *PostgreSQLStore) FetchDomainsByOwner(ctx context.Context, ownerUserID string) ([]Domain, error) {
	rows, err := s.db.Query(ctx, `SELECT `+domainColumns+` FROM domain WHERE owner_user_id = $1 ORDER BY id`, ownerUserID)
	if err != nil {
		return nil, database.Describe(err, "failed to query domains")
	}
	defer rows.Close()

	ds := make([]Domain, 0)
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan domain")
		}

		ds = append(ds, d)
	}

	return ds, rows.Err()
}

// CreateApplication inserts a new application
func (s *PostgreSQLStore) CreateApplication(ctx context.Context, a Application) error {
	_, err := s.db.Exec(
		ctx,
		`INSERT INTO application(`+applicationColumns+`) VALUES($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID,
		a.DomainID,
		a.Slug,
		a.Name,
		a.Description,
		a.OwnerUserID,
		a.CreatedAt,
		a.UpdatedAt,
	)

	if _, ok := database.UniqueViolation(err); ok {
		return ErrDuplicateSlug
	}

	return database.Describe(err, "failed to insert application")
}

func (s *PostgreSQLStore) FetchApplicationByID(ctx context.Context, id string) (Application, error) {
	return s.fetchApplication(ctx, `SELECT `+applicationColumns+` FROM application WHERE id = $1 LIMIT 1`, id)
}

func (s *PostgreSQLStore) FetchApplicationBySlug(ctx context.Context, domainID, slug string) (Application, error) {
	return s.fetchApplication(
		ctx,
		`SELECT `+applicationColumns+` FROM application WHERE domain_id = $1 AND slug = $2 LIMIT 1`,
		domainID,
		slug,
	)
}

func (s *PostgreSQLStore) FetchApplicationsByDomain(ctx context.Context, domainID string) ([]Application, error) {
	rows, err := s.db.Query(ctx, `SELECT `+applicationColumns+` FROM application WHERE domain_id = $1 ORDER BY id`, domainID)
	if err != nil {
		return nil, database.Describe(err, "failed to query applications")
	}
	defer rows.Close()

	as := make([]Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan application")
		}

		as = append(as, a)
	}

	return as, rows.Err()
}
