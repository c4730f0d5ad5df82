package workflow

import (
	"context"

	"github.com/agubarev/lowcode/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// PostgreSQLStore keeps definitions and instances in PostgreSQL,
// nested structures are stored as jsonb
type PostgreSQLStore struct {
	db *pgxpool.Pool
}

// NewPostgreSQLStore returns a workflow store backed by a given pool
func NewPostgreSQLStore(db *pgxpool.Pool) (Store, error) {
	if db == nil {
		return nil, ErrNilDatabase
	}

	return &PostgreSQLStore{db: db}, nil
}

//---------------------------------------------------------------------------
// definitions
//---------------------------------------------------------------------------

const definitionColumns = `id, domain_id, name, description, model_id, icon, states, transitions, version, is_active, created_by, created_at, updated_at`

func scanDefinition(row pgx.Row) (d Definition, err error) {
	var states, transitions []byte

	err = row.Scan(
		&d.ID,
		&d.DomainID,
		&d.Name,
		&d.Description,
		&d.ModelID,
		&d.Icon,
		&states,
		&transitions,
		&d.Version,
		&d.IsActive,
		&d.CreatedBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return d, err
	}

	if err = json.Unmarshal(states, &d.States); err != nil {
		return d, errors.Wrap(err, "failed to unmarshal states")
	}

	if err = json.Unmarshal(transitions, &d.Transitions); err != nil {
		return d, errors.Wrap(err, "failed to unmarshal transitions")
	}

	return d, nil
}

func (s *PostgreSQLStore) definitions(ctx context.Context, q string, args ...interface{}) ([]Definition, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, database.Describe(err, "failed to query workflow definitions")
	}
	defer rows.Close()

	ds := make([]Definition, 0)
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan workflow definition")
		}

		ds = append(ds, d)
	}

	return ds, rows.Err()
}

func (s *PostgreSQLStore) CreateDefinition(ctx context.Context, d Definition) error {
	states, err := json.Marshal(d.States)
	if err != nil {
		return errors.Wrap(err, "failed to marshal states")
	}

	transitions, err := json.Marshal(d.Transitions)
	if err != nil {
		return errors.Wrap(err, "failed to marshal transitions")
	}

	_, err = s.db.Exec(
		ctx,
		`INSERT INTO workflow_definition(`+definitionColumns+`) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		d.ID, d.DomainID, d.Name, d.Description, d.ModelID, d.Icon,
		states, transitions,
		d.Version, d.IsActive, d.CreatedBy, d.CreatedAt, d.UpdatedAt,
	)

	if _, ok := database.UniqueViolation(err); ok {
		return ErrDuplicateDefinition
	}

	return database.Describe(err, "failed to insert workflow definition")
}

func (s *PostgreSQLStore) UpdateDefinition(ctx context.Context, d Definition) error {
	states, err := json.Marshal(d.States)
	if err != nil {
		return errors.Wrap(err, "failed to marshal states")
	}

	transitions, err := json.Marshal(d.Transitions)
	if err != nil {
		return errors.Wrap(err, "failed to marshal transitions")
	}

	q := `
	UPDATE workflow_definition SET
		name = $2,
		description = $3,
		model_id = $4,
		icon = $5,
		states = $6,
		transitions = $7,
		version = $8,
		is_active = $9,
		updated_at = $10
	WHERE id = $1`

	cmd, err := s.db.Exec(
		ctx,
		q,
		d.ID, d.Name, d.Description, d.ModelID, d.Icon,
		states, transitions,
		d.Version, d.IsActive, d.UpdatedAt,
	)
	if err != nil {
		return database.Describe(err, "failed to update workflow definition")
	}

	if cmd.RowsAffected() == 0 {
		return ErrDefinitionNotFound
	}

	return nil
}

func (s *PostgreSQLStore) FetchDefinitionByID(ctx context.Context, id string) (Definition, error) {
	d, err := scanDefinition(s.db.QueryRow(ctx, `SELECT `+definitionColumns+` FROM workflow_definition WHERE id = $1`, id))
	switch {
	case err == nil:
		return d, nil
	case database.IsNoRows(err):
		return d, ErrDefinitionNotFound
	default:
		return d, database.Describe(err, "failed to fetch workflow definition")
	}
}

func (s *PostgreSQLStore) FetchDefinitionsByDomain(ctx context.Context, domainID string) ([]Definition, error) {
	return s.definitions(ctx, `SELECT `+definitionColumns+` FROM workflow_definition WHERE domain_id = $1 ORDER BY id`, domainID)
}

func (s *PostgreSQLStore) FetchDefinitionsByModel(ctx context.Context, modelID string) ([]Definition, error) {
	return s.definitions(ctx, `SELECT `+definitionColumns+` FROM workflow_definition WHERE model_id = $1 ORDER BY id`, modelID)
}

func (s *PostgreSQLStore) DeleteDefinition(ctx context.Context, id string) error {
	cmd, err := s.db.Exec(ctx, `DELETE FROM workflow_definition WHERE id = $1`, id)
	if err != nil {
		return database.Describe(err, "failed to delete workflow definition")
	}

	if cmd.RowsAffected() == 0 {
		return ErrDefinitionNotFound
	}

	return nil
}

//---------------------------------------------------------------------------
// instances
//---------------------------------------------------------------------------

const instanceColumns = `id, definition_id, domain_id, model_id, record_id, current_state, previous_state, assigned_to, data, history, comments, attachments, revision, created_by, created_at, updated_at`

// instanceDocuments holds jsonb-encoded parts of an instance
type instanceDocuments struct {
	assignedTo  []byte
	data        []byte
	history     []byte
	comments    []byte
	attachments []byte
}

func encodeDocuments(i Instance) (docs instanceDocuments, err error) {
	if i.AssignedTo != nil {
		if docs.assignedTo, err = json.Marshal(i.AssignedTo); err != nil {
			return docs, errors.Wrap(err, "failed to marshal assignment")
		}
	}

	if docs.data, err = json.Marshal(i.Data); err != nil {
		return docs, errors.Wrap(err, "failed to marshal data")
	}

	if docs.history, err = json.Marshal(i.History); err != nil {
		return docs, errors.Wrap(err, "failed to marshal history")
	}

	if docs.comments, err = json.Marshal(i.Comments); err != nil {
		return docs, errors.Wrap(err, "failed to marshal comments")
	}

	if docs.attachments, err = json.Marshal(i.Attachments); err != nil {
		return docs, errors.Wrap(err, "failed to marshal attachments")
	}

	return docs, nil
}

func scanInstance(row pgx.Row) (i Instance, err error) {
	var docs instanceDocuments

	err = row.Scan(
		&i.ID,
		&i.DefinitionID,
		&i.DomainID,
		&i.ModelID,
		&i.RecordID,
		&i.CurrentState,
		&i.PreviousState,
		&docs.assignedTo,
		&docs.data,
		&docs.history,
		&docs.comments,
		&docs.attachments,
		&i.Revision,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return i, err
	}

	if len(docs.assignedTo) > 0 {
		i.AssignedTo = new(Assignment)
		if err = json.Unmarshal(docs.assignedTo, i.AssignedTo); err != nil {
			return i, errors.Wrap(err, "failed to unmarshal assignment")
		}
	}

	for _, part := range []struct {
		raw []byte
		dst interface{}
	}{
		{docs.data, &i.Data},
		{docs.history, &i.History},
		{docs.comments, &i.Comments},
		{docs.attachments, &i.Attachments},
	} {
		if err = json.Unmarshal(part.raw, part.dst); err != nil {
			return i, errors.Wrap(err, "failed to unmarshal instance document")
		}
	}

	return i, nil
}

func (s *PostgreSQLStore) instances(ctx context.Context, q string, args ...interface{}) ([]Instance, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, database.Describe(err, "failed to query workflow instances")
	}
	defer rows.Close()

	is := make([]Instance, 0)
	for rows.Next() {
		i, err := scanInstance(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan workflow instance")
		}

		is = append(is, i)
	}

	return is, rows.Err()
}

func (s *PostgreSQLStore) CreateInstance(ctx context.Context, i Instance) error {
	docs, err := encodeDocuments(i)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		ctx,
		`INSERT INTO workflow_instance(`+instanceColumns+`, assignee_id) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		i.ID, i.DefinitionID, i.DomainID, i.ModelID, i.RecordID, i.CurrentState, i.PreviousState,
		docs.assignedTo, docs.data, docs.history, docs.comments, docs.attachments,
		i.Revision, i.CreatedBy, i.CreatedAt, i.UpdatedAt,
		i.AssigneeID(),
	)

	if _, ok := database.UniqueViolation(err); ok {
		return ErrDuplicateInstance
	}

	return database.Describe(err, "failed to insert workflow instance")
}

func (s *PostgreSQLStore) FetchInstanceByID(ctx context.Context, id string) (Instance, error) {
	return s.fetchInstance(ctx, `SELECT `+instanceColumns+` FROM workflow_instance WHERE id = $1`, id)
}

func (s *PostgreSQLStore) fetchInstance(ctx context.Context, q string, args ...interface{}) (Instance, error) {
	i, err := scanInstance(s.db.QueryRow(ctx, q, args...))
	switch {
	case err == nil:
		return i, nil
	case database.IsNoRows(err):
		return i, ErrInstanceNotFound
	default:
		return i, database.Describe(err, "failed to fetch workflow instance")
	}
}

func (s *PostgreSQLStore) FetchInstancesByDefinition(ctx context.Context, definitionID string) ([]Instance, error) {
	return s.instances(ctx, `SELECT `+instanceColumns+` FROM workflow_instance WHERE definition_id = $1 ORDER BY id`, definitionID)
}

func (s *PostgreSQLStore) FetchInstancesByState(ctx context.Context, domainID, state string) ([]Instance, error) {
	return s.instances(
		ctx,
		`SELECT `+instanceColumns+` FROM workflow_instance WHERE domain_id = $1 AND current_state = $2 ORDER BY id`,
		domainID,
		state,
	)
}

func (s *PostgreSQLStore) FetchInstancesByAssignee(ctx context.Context, userID string) ([]Instance, error) {
	return s.instances(ctx, `SELECT `+instanceColumns+` FROM workflow_instance WHERE assignee_id = $1 ORDER BY id`, userID)
}

func (s *PostgreSQLStore) FetchInstanceByRecord(ctx context.Context, domainID, recordID string) (Instance, error) {
	return s.fetchInstance(
		ctx,
		`SELECT `+instanceColumns+` FROM workflow_instance WHERE domain_id = $1 AND record_id = $2 ORDER BY id LIMIT 1`,
		domainID,
		recordID,
	)
}

// UpdateInstance is a conditional update, the revision and state
// are compared by the database within the same statement
func (s *PostgreSQLStore) UpdateInstance(ctx context.Context, next Instance, expectedRevision int64, expectedState string) error {
	docs, err := encodeDocuments(next)
	if err != nil {
		return err
	}

	q := `
	UPDATE workflow_instance SET
		current_state = $4,
		previous_state = $5,
		assigned_to = $6,
		assignee_id = $7,
		data = $8,
		history = $9,
		comments = $10,
		attachments = $11,
		revision = $12,
		updated_at = $13
	WHERE id = $1 AND revision = $2 AND current_state = $3`

	cmd, err := s.db.Exec(
		ctx,
		q,
		next.ID, expectedRevision, expectedState,
		next.CurrentState, next.PreviousState,
		docs.assignedTo, next.AssigneeID(),
		docs.data, docs.history, docs.comments, docs.attachments,
		next.Revision, next.UpdatedAt,
	)
	if err != nil {
		return database.Describe(err, "failed to update workflow instance")
	}

	if cmd.RowsAffected() == 1 {
		return nil
	}

	// telling a missing row apart from a stale one
	var exists bool
	if err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM workflow_instance WHERE id = $1)`, next.ID).Scan(&exists); err != nil {
		return database.Describe(err, "failed to check workflow instance")
	}

	if !exists {
		return ErrInstanceNotFound
	}

	return ErrConflict
}
