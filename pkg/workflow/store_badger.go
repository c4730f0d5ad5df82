package workflow

import (
	"context"

	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	badgerDefinitionPrefix = []byte("wf/def/")
	badgerInstancePrefix   = []byte("wf/inst/")
)

// BadgerStore is an embedded workflow store, every mutation is a
// single badger transaction so concurrent writers are detected
// by badger's own conflict tracking
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore returns a workflow store on top of an open badger database
func NewBadgerStore(db *badger.DB) (Store, error) {
	if db == nil {
		return nil, ErrNilDatabase
	}

	return &BadgerStore{db: db}, nil
}

// OpenBadger opens (or creates) a badger database in a given directory,
// routing badger's own logging through zap
func OpenBadger(dir string, logger *zap.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)

	if logger != nil {
		opts.Logger = badgerLogger{logger.Named("[badger]").Sugar()}
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open badger database at %s", dir)
	}

	return db, nil
}

// badgerLogger adapts zap to badger.Logger
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

func definitionKey(id string) []byte {
	return append(append([]byte{}, badgerDefinitionPrefix...), id...)
}

func instanceKey(id string) []byte {
	return append(append([]byte{}, badgerInstancePrefix...), id...)
}

// get reads a value within a transaction, copying it out
func get(tx *badger.Txn, key []byte) (val []byte, err error) {
	item, err := tx.Get(key)
	if err != nil {
		return nil, err
	}

	err = item.Value(func(v []byte) error {
		val = append(val, v...)
		return nil
	})

	return val, err
}

// scan walks every value under a given prefix
func (s *BadgerStore) scan(prefix []byte, fn func(val []byte) error) error {
	return s.db.View(func(tx *badger.Txn) error {
		it := tx.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}

		return nil
	})
}

// update runs fn in a read-write transaction, translating
// a transaction conflict into ErrConflict
func (s *BadgerStore) update(fn func(tx *badger.Txn) error) error {
	err := s.db.Update(fn)
	if err == badger.ErrConflict {
		return ErrConflict
	}

	return err
}

//---------------------------------------------------------------------------
// definitions
//---------------------------------------------------------------------------

func (s *BadgerStore) CreateDefinition(ctx context.Context, d Definition) error {
	buf, err := encodeDefinition(d)
	if err != nil {
		return err
	}

	err = s.update(func(tx *badger.Txn) error {
		key := definitionKey(d.ID)

		if _, err := tx.Get(key); err == nil {
			return ErrDuplicateDefinition
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		return tx.Set(key, buf)
	})

	if err == ErrConflict {
		return ErrDuplicateDefinition
	}

	return err
}

func (s *BadgerStore) UpdateDefinition(ctx context.Context, d Definition) error {
	buf, err := encodeDefinition(d)
	if err != nil {
		return err
	}

	return s.update(func(tx *badger.Txn) error {
		key := definitionKey(d.ID)

		if _, err := tx.Get(key); err == badger.ErrKeyNotFound {
			return ErrDefinitionNotFound
		} else if err != nil {
			return err
		}

		return tx.Set(key, buf)
	})
}

func (s *BadgerStore) FetchDefinitionByID(ctx context.Context, id string) (d Definition, err error) {
	err = s.db.View(func(tx *badger.Txn) error {
		buf, err := get(tx, definitionKey(id))
		if err != nil {
			return err
		}

		d, err = decodeDefinition(buf)

		return err
	})

	if err == badger.ErrKeyNotFound {
		return Definition{}, ErrDefinitionNotFound
	}

	return d, err
}

func (s *BadgerStore) filterDefinitions(fn func(d Definition) bool) ([]Definition, error) {
	ds := make([]Definition, 0)

	err := s.scan(badgerDefinitionPrefix, func(val []byte) error {
		d, err := decodeDefinition(val)
		if err != nil {
			return err
		}

		if fn(d) {
			ds = append(ds, d)
		}

		return nil
	})

	return ds, err
}

func (s *BadgerStore) FetchDefinitionsByDomain(ctx context.Context, domainID string) ([]Definition, error) {
	return s.filterDefinitions(func(d Definition) bool { return d.DomainID == domainID })
}

func (s *BadgerStore) FetchDefinitionsByModel(ctx context.Context, modelID string) ([]Definition, error) {
	return s.filterDefinitions(func(d Definition) bool { return d.ModelID == modelID })
}

func (s *BadgerStore) DeleteDefinition(ctx context.Context, id string) error {
	return s.update(func(tx *badger.Txn) error {
		key := definitionKey(id)

		if _, err := tx.Get(key); err == badger.ErrKeyNotFound {
			return ErrDefinitionNotFound
		} else if err != nil {
			return err
		}

		return tx.Delete(key)
	})
}

//---------------------------------------------------------------------------
// instances
//---------------------------------------------------------------------------

func (s *BadgerStore) CreateInstance(ctx context.Context, i Instance) error {
	buf, err := encodeInstance(i)
	if err != nil {
		return err
	}

	err = s.update(func(tx *badger.Txn) error {
		key := instanceKey(i.ID)

		if _, err := tx.Get(key); err == nil {
			return ErrDuplicateInstance
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		return tx.Set(key, buf)
	})

	if err == ErrConflict {
		return ErrDuplicateInstance
	}

	return err
}

func (s *BadgerStore) FetchInstanceByID(ctx context.Context, id string) (i Instance, err error) {
	err = s.db.View(func(tx *badger.Txn) error {
		buf, err := get(tx, instanceKey(id))
		if err != nil {
			return err
		}

		i, err = decodeInstance(buf)

		return err
	})

	if err == badger.ErrKeyNotFound {
		return Instance{}, ErrInstanceNotFound
	}

	return i, err
}

func (s *BadgerStore) filterInstances(fn func(i Instance) bool) ([]Instance, error) {
	is := make([]Instance, 0)

	err := s.scan(badgerInstancePrefix, func(val []byte) error {
		i, err := decodeInstance(val)
		if err != nil {
			return err
		}

		if fn(i) {
			is = append(is, i)
		}

		return nil
	})

	return is, err
}

func (s *BadgerStore) FetchInstancesByDefinition(ctx context.Context, definitionID string) ([]Instance, error) {
	return s.filterInstances(func(i Instance) bool { return i.DefinitionID == definitionID })
}

func (s *BadgerStore) FetchInstancesByState(ctx context.Context, domainID, state string) ([]Instance, error) {
	return s.filterInstances(func(i Instance) bool {
		return i.DomainID == domainID && i.CurrentState == state
	})
}

func (s *BadgerStore) FetchInstancesByAssignee(ctx context.Context, userID string) ([]Instance, error) {
	return s.filterInstances(func(i Instance) bool { return i.AssigneeID() == userID })
}

func (s *BadgerStore) FetchInstanceByRecord(ctx context.Context, domainID, recordID string) (Instance, error) {
	is, err := s.filterInstances(func(i Instance) bool {
		return i.DomainID == domainID && i.RecordID == recordID
	})
	if err != nil {
		return Instance{}, err
	}

	if len(is) == 0 {
		return Instance{}, ErrInstanceNotFound
	}

	return is[0], nil
}

func (s *BadgerStore) UpdateInstance(ctx context.Context, next Instance, expectedRevision int64, expectedState string) error {
	buf, err := encodeInstance(next)
	if err != nil {
		return err
	}

	return s.update(func(tx *badger.Txn) error {
		key := instanceKey(next.ID)

		raw, err := get(tx, key)
		if err == badger.ErrKeyNotFound {
			return ErrInstanceNotFound
		} else if err != nil {
			return err
		}

		current, err := decodeInstance(raw)
		if err != nil {
			return err
		}

		if current.Revision != expectedRevision || current.CurrentState != expectedState {
			return ErrConflict
		}

		return tx.Set(key, buf)
	})
}
