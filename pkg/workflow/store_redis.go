package workflow

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix is prepended to every key unless overridden
const DefaultRedisPrefix = "lowcode:workflow:"

// RedisStore keeps aggregates as JSON strings and maintains
// secondary indexes as sets; instance updates are guarded by WATCH
type RedisStore struct {
	client *redis.Client
	prefix string
}

// RedisOption configures a RedisStore
type RedisOption func(s *RedisStore)

// WithRedisPrefix overrides the key prefix
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore returns a workflow store backed by a given client
func NewRedisStore(client *redis.Client, opts ...RedisOption) (Store, error) {
	if client == nil {
		return nil, ErrNilRedisClient
	}

	s := &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

//---------------------------------------------------------------------------
// keys
//---------------------------------------------------------------------------

func (s *RedisStore) definitionKey(id string) string { return s.prefix + "def:" + id }

func (s *RedisStore) domainIndex(domainID string) string { return s.prefix + "defs:domain:" + domainID }

func (s *RedisStore) modelIndex(modelID string) string { return s.prefix + "defs:model:" + modelID }

func (s *RedisStore) instanceKey(id string) string { return s.prefix + "inst:" + id }

func (s *RedisStore) definitionIndex(definitionID string) string {
	return s.prefix + "insts:definition:" + definitionID
}

func (s *RedisStore) stateIndex(domainID, state string) string {
	return s.prefix + "insts:state:" + domainID + ":" + state
}

func (s *RedisStore) assigneeIndex(userID string) string { return s.prefix + "insts:assignee:" + userID }

func (s *RedisStore) recordIndex(domainID, recordID string) string {
	return s.prefix + "insts:record:" + domainID + ":" + recordID
}

// members loads documents referenced by an index set, skipping stale entries
func (s *RedisStore) members(ctx context.Context, index string, key func(id string) string) ([][]byte, error) {
	ids, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read index %s", index)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load indexed documents")
	}

	docs := make([][]byte, 0, len(vals))
	for _, v := range vals {
		if str, ok := v.(string); ok {
			docs = append(docs, []byte(str))
		}
	}

	return docs, nil
}

//---------------------------------------------------------------------------
// definitions
//---------------------------------------------------------------------------

func (s *RedisStore) CreateDefinition(ctx context.Context, d Definition) error {
	buf, err := encodeDefinition(d)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.definitionKey(d.ID), buf, 0).Result()
	if err != nil {
		return errors.Wrap(err, "failed to store workflow definition")
	}

	if !ok {
		return ErrDuplicateDefinition
	}

	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.domainIndex(d.DomainID), d.ID)
	pipe.SAdd(ctx, s.modelIndex(d.ModelID), d.ID)

	if _, err = pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to index workflow definition")
	}

	return nil
}

func (s *RedisStore) UpdateDefinition(ctx context.Context, d Definition) error {
	buf, err := encodeDefinition(d)
	if err != nil {
		return err
	}

	key := s.definitionKey(d.ID)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrDefinitionNotFound
		}

		if err != nil {
			return err
		}

		previous, err := decodeDefinition(raw)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, buf, 0)

			if previous.ModelID != d.ModelID {
				pipe.SRem(ctx, s.modelIndex(previous.ModelID), d.ID)
				pipe.SAdd(ctx, s.modelIndex(d.ModelID), d.ID)
			}

			return nil
		})

		return err
	}, key)

	if err == redis.TxFailedErr {
		return ErrConflict
	}

	return err
}

func (s *RedisStore) FetchDefinitionByID(ctx context.Context, id string) (Definition, error) {
	raw, err := s.client.Get(ctx, s.definitionKey(id)).Bytes()
	if err == redis.Nil {
		return Definition{}, ErrDefinitionNotFound
	}

	if err != nil {
		return Definition{}, errors.Wrap(err, "failed to fetch workflow definition")
	}

	return decodeDefinition(raw)
}

func (s *RedisStore) definitions(ctx context.Context, index string) ([]Definition, error) {
	docs, err := s.members(ctx, index, s.definitionKey)
	if err != nil {
		return nil, err
	}

	ds := make([]Definition, 0, len(docs))
	for _, doc := range docs {
		d, err := decodeDefinition(doc)
		if err != nil {
			return nil, err
		}

		ds = append(ds, d)
	}

	return ds, nil
}

func (s *RedisStore) FetchDefinitionsByDomain(ctx context.Context, domainID string) ([]Definition, error) {
	return s.definitions(ctx, s.domainIndex(domainID))
}

func (s *RedisStore) FetchDefinitionsByModel(ctx context.Context, modelID string) ([]Definition, error) {
	return s.definitions(ctx, s.modelIndex(modelID))
}

func (s *RedisStore) DeleteDefinition(ctx context.Context, id string) error {
	d, err := s.FetchDefinitionByID(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.definitionKey(id))
	pipe.SRem(ctx, s.domainIndex(d.DomainID), id)
	pipe.SRem(ctx, s.modelIndex(d.ModelID), id)

	if _, err = pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "failed to delete workflow definition")
	}

	return nil
}

//---------------------------------------------------------------------------
// instances
//---------------------------------------------------------------------------

func (s *RedisStore) CreateInstance(ctx context.Context, i Instance) error {
	buf, err := encodeInstance(i)
	if err != nil {
		return err
	}

	key := s.instanceKey(i.ID)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}

		if n > 0 {
			return ErrDuplicateInstance
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, buf, 0)
			pipe.SAdd(ctx, s.definitionIndex(i.DefinitionID), i.ID)
			pipe.SAdd(ctx, s.stateIndex(i.DomainID, i.CurrentState), i.ID)
			pipe.SAdd(ctx, s.recordIndex(i.DomainID, i.RecordID), i.ID)

			if assignee := i.AssigneeID(); assignee != "" {
				pipe.SAdd(ctx, s.assigneeIndex(assignee), i.ID)
			}

			return nil
		})

		return err
	}, key)

	if err == redis.TxFailedErr {
		return ErrDuplicateInstance
	}

	return err
}

func (s *RedisStore) FetchInstanceByID(ctx context.Context, id string) (Instance, error) {
	raw, err := s.client.Get(ctx, s.instanceKey(id)).Bytes()
	if err == redis.Nil {
		return Instance{}, ErrInstanceNotFound
	}

	if err != nil {
		return Instance{}, errors.Wrap(err, "failed to fetch workflow instance")
	}

	return decodeInstance(raw)
}

func (s *RedisStore) instances(ctx context.Context, index string) ([]Instance, error) {
	docs, err := s.members(ctx, index, s.instanceKey)
	if err != nil {
		return nil, err
	}

	is := make([]Instance, 0, len(docs))
	for _, doc := range docs {
		i, err := decodeInstance(doc)
		if err != nil {
			return nil, err
		}

		is = append(is, i)
	}

	return is, nil
}

func (s *RedisStore) FetchInstancesByDefinition(ctx context.Context, definitionID string) ([]Instance, error) {
	return s.instances(ctx, s.definitionIndex(definitionID))
}

func (s *RedisStore) FetchInstancesByState(ctx context.Context, domainID, state string) ([]Instance, error) {
	is, err := s.instances(ctx, s.stateIndex(domainID, state))
	if err != nil {
		return nil, err
	}

	// the index is moved in the same transaction as the document,
	// this only guards against documents edited out of band
	filtered := is[:0]
	for _, i := range is {
		if i.CurrentState == state {
			filtered = append(filtered, i)
		}
	}

	return filtered, nil
}

func (s *RedisStore) FetchInstancesByAssignee(ctx context.Context, userID string) ([]Instance, error) {
	return s.instances(ctx, s.assigneeIndex(userID))
}

func (s *RedisStore) FetchInstanceByRecord(ctx context.Context, domainID, recordID string) (Instance, error) {
	is, err := s.instances(ctx, s.recordIndex(domainID, recordID))
	if err != nil {
		return Instance{}, err
	}

	if len(is) == 0 {
		return Instance{}, ErrInstanceNotFound
	}

	return is[0], nil
}

func (s *RedisStore) UpdateInstance(ctx context.Context, next Instance, expectedRevision int64, expectedState string) error {
	buf, err := encodeInstance(next)
	if err != nil {
		return err
	}

	key := s.instanceKey(next.ID)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrInstanceNotFound
		}

		if err != nil {
			return err
		}

		current, err := decodeInstance(raw)
		if err != nil {
			return err
		}

		if current.Revision != expectedRevision || current.CurrentState != expectedState {
			return ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, buf, 0)

			if current.CurrentState != next.CurrentState {
				pipe.SRem(ctx, s.stateIndex(current.DomainID, current.CurrentState), next.ID)
				pipe.SAdd(ctx, s.stateIndex(next.DomainID, next.CurrentState), next.ID)
			}

			if before, after := current.AssigneeID(), next.AssigneeID(); before != after {
				if before != "" {
					pipe.SRem(ctx, s.assigneeIndex(before), next.ID)
				}

				if after != "" {
					pipe.SAdd(ctx, s.assigneeIndex(after), next.ID)
				}
			}

			return nil
		})

		return err
	}, key)

	// someone else has written the key between WATCH and EXEC
	if err == redis.TxFailedErr {
		return ErrConflict
	}

	return err
}
