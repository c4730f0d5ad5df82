package group

import (
	"context"

	"github.com/agubarev/lowcode/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// PostgreSQLStore is a PostgreSQL-backed group store
type PostgreSQLStore struct {
	db *pgxpool.Pool
}

// NewPostgreSQLStore returns a group store backed by a given pool
func NewPostgreSQLStore(db *pgxpool.Pool) (Store, error) {
	if db == nil {
		return nil, ErrNilDatabase
	}

	return &PostgreSQLStore{db: db}, nil
}

//---------------------------------------------------------------------------
// unexported utility functions
//---------------------------------------------------------------------------

func scanDomainGroup(row pgx.Row) (g DomainGroup, err error) {
	err = row.Scan(&g.ID, &g.DomainID, &g.Name, &g.Permissions, &g.DefaultGroup, &g.CreatedAt)
	return g, err
}

func scanAppGroup(row pgx.Row) (g AppGroup, err error) {
	err = row.Scan(&g.ID, &g.AppID, &g.Name, &g.Permissions, &g.DefaultGroup, &g.CreatedAt)
	return g, err
}

func (s *PostgreSQLStore) domainGroups(ctx context.Context, q string, args ...interface{}) ([]DomainGroup, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, database.Describe(err, "failed to query domain groups")
	}
	defer rows.Close()

	gs := make([]DomainGroup, 0)
	for rows.Next() {
		g, err := scanDomainGroup(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan domain group")
		}

		gs = append(gs, g)
	}

	return gs, rows.Err()
}

func (s *PostgreSQLStore) appGroups(ctx context.Context, q string, args ...interface{}) ([]AppGroup, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, database.Describe(err, "failed to query app groups")
	}
	defer rows.Close()

	gs := make([]AppGroup, 0)
	for rows.Next() {
		g, err := scanAppGroup(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan app group")
		}

		gs = append(gs, g)
	}

	return gs, rows.Err()
}

// insert executes an insert, mapping a unique violation to a given error
func (s *PostgreSQLStore) insert(ctx context.Context, onDuplicate error, q string, args ...interface{}) error {
	_, err := s.db.Exec(ctx, q, args...)
	if _, ok := database.UniqueViolation(err); ok {
		return onDuplicate
	}

	return database.Describe(err, "failed to insert")
}

func (s *PostgreSQLStore) delete(ctx context.Context, q string, args ...interface{}) error {
	cmd, err := s.db.Exec(ctx, q, args...)
	if err != nil {
		return database.Describe(err, "failed to delete")
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotMember
	}

	return nil
}

//---------------------------------------------------------------------------
// domain groups
//---------------------------------------------------------------------------

const domainGroupColumns = `id, domain_id, name, permissions, default_group, created_at`

func (s *PostgreSQLStore) CreateDomainGroup(ctx context.Context, g DomainGroup) error {
	return s.insert(
		ctx,
		ErrDuplicateGroup,
		`INSERT INTO domain_group(`+domainGroupColumns+`) VALUES($1, $2, $3, $4, $5, $6)`,
		g.ID, g.DomainID, g.Name, g.Permissions, g.DefaultGroup, g.CreatedAt,
	)
}

func (s *PostgreSQLStore) FetchDomainGroupByID(ctx context.Context, id string) (DomainGroup, error) {
	g, err := scanDomainGroup(s.db.QueryRow(ctx, `SELECT `+domainGroupColumns+` FROM domain_group WHERE id = $1`, id))
	switch {
	case err == nil:
		return g, nil
	case database.IsNoRows(err):
		return g, ErrGroupNotFound
	default:
		return g, database.Describe(err, "failed to fetch domain group")
	}
}

func (s *PostgreSQLStore) FetchDomainGroups(ctx context.Context, domainID string) ([]DomainGroup, error) {
	return s.domainGroups(ctx, `SELECT `+domainGroupColumns+` FROM domain_group WHERE domain_id = $1 ORDER BY id`, domainID)
}

func (s *PostgreSQLStore) FetchDomainGroupsOfUser(ctx context.Context, domainID, userID string) ([]DomainGroup, error) {
	q := `
	SELECT g.id, g.domain_id, g.name, g.permissions, g.default_group, g.created_at
	FROM domain_group g
	INNER JOIN domain_group_member m ON m.domain_group_id = g.id
	WHERE m.domain_id = $1 AND m.user_id = $2
	ORDER BY g.id`

	return s.domainGroups(ctx, q, domainID, userID)
}

func (s *PostgreSQLStore) FetchDomainGroupMembers(ctx context.Context, groupID string) ([]DomainGroupMember, error) {
	rows, err := s.db.Query(
		ctx,
		`SELECT id, domain_group_id, domain_id, user_id, assigned_by, assigned_at FROM domain_group_member WHERE domain_group_id = $1 ORDER BY id`,
		groupID,
	)
	if err != nil {
		return nil, database.Describe(err, "failed to query domain group members")
	}
	defer rows.Close()

	ms := make([]DomainGroupMember, 0)
	for rows.Next() {
		var m DomainGroupMember
		if err = rows.Scan(&m.ID, &m.DomainGroupID, &m.DomainID, &m.UserID, &m.AssignedBy, &m.AssignedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan domain group member")
		}

		ms = append(ms, m)
	}

	return ms, rows.Err()
}

func (s *PostgreSQLStore) CreateDomainGroupMember(ctx context.Context, m DomainGroupMember) error {
	return s.insert(
		ctx,
		ErrDuplicateMember,
		`INSERT INTO domain_group_member(id, domain_group_id, domain_id, user_id, assigned_by, assigned_at) VALUES($1, $2, $3, $4, $5, $6)`,
		m.ID, m.DomainGroupID, m.DomainID, m.UserID, m.AssignedBy, m.AssignedAt,
	)
}

func (s *PostgreSQLStore) DeleteDomainGroupMember(ctx context.Context, groupID, userID string) error {
	return s.delete(ctx, `DELETE FROM domain_group_member WHERE domain_group_id = $1 AND user_id = $2`, groupID, userID)
}

//---------------------------------------------------------------------------
// application groups
//---------------------------------------------------------------------------

const appGroupColumns = `id, app_id, name, permissions, default_group, created_at`

func (s *PostgreSQLStore) CreateAppGroup(ctx context.Context, g AppGroup) error {
	return s.insert(
		ctx,
		ErrDuplicateGroup,
		`INSERT INTO app_group(`+appGroupColumns+`) VALUES($1, $2, $3, $4, $5, $6)`,
		g.ID, g.AppID, g.Name, g.Permissions, g.DefaultGroup, g.CreatedAt,
	)
}

func (s *PostgreSQLStore) fetchAppGroup(ctx context.Context, q string, args ...interface{}) (AppGroup, error) {
	g, err := scanAppGroup(s.db.QueryRow(ctx, q, args...))
	switch {
	case err == nil:
		return g, nil
	case database.IsNoRows(err):
		return g, ErrGroupNotFound
	default:
		return g, database.Describe(err, "failed to fetch app group")
	}
}

func (s *PostgreSQLStore) FetchAppGroupByID(ctx context.Context, id string) (AppGroup, error) {
	return s.fetchAppGroup(ctx, `SELECT `+appGroupColumns+` FROM app_group WHERE id = $1`, id)
}

func (s *PostgreSQLStore) FetchAppGroupByName(ctx context.Context, appID, name string) (AppGroup, error) {
	return s.fetchAppGroup(ctx, `SELECT `+appGroupColumns+` FROM app_group WHERE app_id = $1 AND name = $2`, appID, name)
}

func (s *PostgreSQLStore) FetchAppGroups(ctx context.Context, appID string) ([]AppGroup, error) {
	return s.appGroups(ctx, `SELECT `+appGroupColumns+` FROM app_group WHERE app_id = $1 ORDER BY id`, appID)
}

func (s *PostgreSQLStore) FetchAppGroupsOfUser(ctx context.Context, appID, userID string) ([]AppGroup, error) {
	q := `
	SELECT g.id, g.app_id, g.name, g.permissions, g.default_group, g.created_at
	FROM app_group g
	INNER JOIN app_group_member m ON m.group_id = g.id
	WHERE m.app_id = $1 AND m.user_id = $2
	ORDER BY g.id`

	return s.appGroups(ctx, q, appID, userID)
}

func (s *PostgreSQLStore) FetchAppGroupMembers(ctx context.Context, groupID string) ([]AppGroupMember, error) {
	rows, err := s.db.Query(
		ctx,
		`SELECT id, group_id, app_id, user_id, assigned_by, assigned_at FROM app_group_member WHERE group_id = $1 ORDER BY id`,
		groupID,
	)
	if err != nil {
		return nil, database.Describe(err, "failed to query app group members")
	}
	defer rows.Close()

	ms := make([]AppGroupMember, 0)
	for rows.Next() {
		var m AppGroupMember
		if err = rows.Scan(&m.ID, &m.GroupID, &m.AppID, &m.UserID, &m.AssignedBy, &m.AssignedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan app group member")
		}

		ms = append(ms, m)
	}

	return ms, rows.Err()
}

func (s *PostgreSQLStore) CreateAppGroupMember(ctx context.Context, m AppGroupMember) error {
	return s.insert(
		ctx,
		ErrDuplicateMember,
		`INSERT INTO app_group_member(id, group_id, app_id, user_id, assigned_by, assigned_at) VALUES($1, $2, $3, $4, $5, $6)`,
		m.ID, m.GroupID, m.AppID, m.UserID, m.AssignedBy, m.AssignedAt,
	)
}

func (s *PostgreSQLStore) DeleteAppGroupMember(ctx context.Context, groupID, userID string) error {
	return s.delete(ctx, `DELETE FROM app_group_member WHERE group_id = $1 AND user_id = $2`, groupID, userID)
}
