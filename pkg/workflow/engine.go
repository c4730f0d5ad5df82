package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/agubarev/lowcode/pkg/fault"
	"github.com/agubarev/lowcode/pkg/util"
	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Engine drives workflow instances through their definitions
// NOTE: the engine does not authorize anything, allowed roles and
// permissions are checked by the caller before calling it
type Engine struct {
	definitions DefinitionStore
	instances   InstanceStore
	clock       util.Clock
	metrics     *Metrics
	logger      *zap.Logger

	executors map[string]ActionExecutor
	evaluator ConditionEvaluator
	sync.RWMutex
}

// NewEngine initializing a new instance engine
func NewEngine(definitions DefinitionStore, instances InstanceStore) (*Engine, error) {
	if definitions == nil || instances == nil {
		return nil, ErrNilStore
	}

	e := &Engine{
		definitions: definitions,
		instances:   instances,
		clock:       util.SystemClock{},
		executors:   make(map[string]ActionExecutor),
	}

	return e, nil
}

// SetLogger assigns a logger for this engine
func (e *Engine) SetLogger(logger *zap.Logger) error {
	if logger != nil {
		logger = logger.Named("[engine]")
	}

	e.logger = logger

	return nil
}

// Logger returns primary logger if is set, otherwise initializing and returning
func (e *Engine) Logger() *zap.Logger {
	if e.logger == nil {
		e.logger = util.DevelopmentLogger("workflow engine")
	}

	return e.logger
}

// SetClock overrides the time source
func (e *Engine) SetClock(c util.Clock) {
	if c != nil {
		e.clock = c
	}
}

// SetMetrics enables engine counters
func (e *Engine) SetMetrics(m *Metrics) {
	e.metrics = m
}

// RegisterAction registers an executor for a business action type
func (e *Engine) RegisterAction(actionType string, ex ActionExecutor) error {
	if ex == nil {
		return ErrNilActionHandler
	}

	e.Lock()
	e.executors[strings.ToUpper(strings.TrimSpace(actionType))] = ex
	e.Unlock()

	return nil
}

// SetConditionEvaluator registers an evaluator for custom conditions
func (e *Engine) SetConditionEvaluator(ev ConditionEvaluator) {
	e.Lock()
	e.evaluator = ev
	e.Unlock()
}

//---------------------------------------------------------------------------
// instance lifecycle
//---------------------------------------------------------------------------

// CreateInstance starts a new instance of a definition in its initial state
func (e *Engine) CreateInstance(
	ctx context.Context,
	definitionID string,
	domainID string,
	recordID string,
	initialData map[string]interface{},
	createdBy string,
) (Instance, error) {
	def, err := e.definitions.FetchDefinitionByID(ctx, definitionID)
	if err != nil {
		return Instance{}, err
	}

	if def.DomainID != domainID {
		return Instance{}, ErrDefinitionNotFound
	}

	if !def.IsActive {
		return Instance{}, ErrInactiveDefinition
	}

	// stored definitions may have been altered after validation
	initial, ok := def.InitialState()
	if !ok {
		e.Logger().Error(
			"workflow definition has no unique initial state",
			zap.String("definition_id", def.ID),
			zap.String("domain_id", def.DomainID),
		)

		return Instance{}, ErrCorruptDefinition
	}

	now := e.clock.Now()

	i := Instance{
		ID:           util.NewID(),
		DefinitionID: def.ID,
		DomainID:     domainID,
		ModelID:      def.ModelID,
		RecordID:     recordID,
		CurrentState: initial.ID,
		Data:         mergeData(nil, initialData),
		History:      make([]HistoryEntry, 0),
		Comments:     make([]Comment, 0),
		Attachments:  make([]Attachment, 0),
		Revision:     1,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = e.instances.CreateInstance(ctx, i); err != nil {
		return Instance{}, errors.Wrap(err, "failed to store workflow instance")
	}

	e.metrics.instanceCreated()

	e.Logger().Info(
		"workflow instance created",
		zap.String("id", i.ID),
		zap.String("definition_id", def.ID),
		zap.String("record_id", recordID),
		zap.String("state", i.CurrentState),
	)

	return i, nil
}

// definitionOf loads the definition of a live instance
func (e *Engine) definitionOf(ctx context.Context, i Instance) (Definition, error) {
	def, err := e.definitions.FetchDefinitionByID(ctx, i.DefinitionID)
	if err == nil {
		return def, nil
	}

	if errors.Cause(err) == ErrDefinitionNotFound {
		e.Logger().Error(
			"definition of a live instance is missing",
			zap.String("instance_id", i.ID),
			zap.String("definition_id", i.DefinitionID),
		)

		return Definition{}, ErrOrphanedInstance
	}

	return Definition{}, err
}

// ExecuteTransition applies a transition to an instance; the write
// succeeds only if nobody has moved the instance in the meantime
func (e *Engine) ExecuteTransition(
	ctx context.Context,
	instanceID string,
	transitionID string,
	userID string,
	comment string,
	additionalData map[string]interface{},
) (Instance, error) {
	i, err := e.executeTransition(ctx, instanceID, transitionID, userID, comment, additionalData)

	switch fault.KindOf(err) {
	case fault.KUnknown:
		if err == nil {
			e.metrics.transition(OutcomeApplied)
		} else {
			e.metrics.transition(OutcomeFailed)
		}
	case fault.KConflict:
		e.metrics.transition(OutcomeConflict)
	case fault.KInternal:
		e.metrics.transition(OutcomeFailed)
	default:
		e.metrics.transition(OutcomeRejected)
	}

	return i, err
}

func (e *Engine) executeTransition(
	ctx context.Context,
	instanceID string,
	transitionID string,
	userID string,
	comment string,
	additionalData map[string]interface{},
) (Instance, error) {
	if strings.TrimSpace(userID) == "" {
		return Instance{}, ErrEmptyUserID
	}

	current, err := e.instances.FetchInstanceByID(ctx, instanceID)
	if err != nil {
		return Instance{}, err
	}

	def, err := e.definitionOf(ctx, current)
	if err != nil {
		return Instance{}, err
	}

	t, ok := def.Transition(transitionID)
	if !ok {
		return Instance{}, ErrTransitionNotFound
	}

	if t.FromState != current.CurrentState {
		return Instance{}, ErrInvalidTransition
	}

	if _, ok = def.State(t.ToState); !ok {
		e.Logger().Error(
			"transition leads to an unknown state",
			zap.String("definition_id", def.ID),
			zap.String("transition_id", t.ID),
			zap.String("to_state", t.ToState),
		)

		return Instance{}, ErrCorruptDefinition
	}

	next := current.Clone()
	next.Data = mergeData(current.Data, additionalData)

	if err = e.checkConditions(ctx, next, t); err != nil {
		return Instance{}, err
	}

	results, err := e.runActions(ctx, next, t)
	if err != nil {
		return Instance{}, err
	}

	now := e.clock.Now()

	next.PreviousState = current.CurrentState
	next.CurrentState = t.ToState
	next.History = append(next.History, HistoryEntry{
		TransitionID:  t.ID,
		FromState:     t.FromState,
		ToState:       t.ToState,
		PerformedBy:   userID,
		PerformedAt:   now,
		Comment:       comment,
		ActionResults: results,
	})

	if err = e.commit(ctx, current, &next, now); err != nil {
		return Instance{}, err
	}

	e.Logger().Info(
		"transition executed",
		zap.String("instance_id", next.ID),
		zap.String("transition_id", t.ID),
		zap.String("from", t.FromState),
		zap.String("to", t.ToState),
		zap.String("user_id", userID),
	)

	return next, nil
}

// commit persists a mutated instance, comparing against the
// revision and state it has been derived from
func (e *Engine) commit(ctx context.Context, current Instance, next *Instance, now time.Time) error {
	next.Revision = current.Revision + 1
	next.UpdatedAt = now

	err := e.instances.UpdateInstance(ctx, *next, current.Revision, current.CurrentState)
	if err == nil {
		return nil
	}

	if fault.IsConflict(err) {
		e.Logger().Debug(
			"concurrent modification",
			zap.String("instance_id", current.ID),
			zap.Int64("revision", current.Revision),
			zap.String("state", current.CurrentState),
		)

		return err
	}

	return errors.Wrap(err, "failed to update workflow instance")
}

// checkConditions makes sure required fields and every
// condition of a transition hold for the merged data
func (e *Engine) checkConditions(ctx context.Context, i Instance, t Transition) error {
	if err := checkRequiredFields(i.Data, t.RequiredFields); err != nil {
		return err
	}

	for _, c := range t.Conditions {
		switch c.Type {
		case ConditionFieldRequired:
			if err := checkRequiredFields(i.Data, c.Fields); err != nil {
				return err
			}
		case ConditionMinItems:
			if err := checkMinItems(i.Data, c.Fields, c.Value); err != nil {
				return err
			}
		case ConditionCustomValidation:
			e.RLock()
			ev := e.evaluator
			e.RUnlock()

			if ev == nil {
				return ErrNoConditionEvaluator
			}

			if err := ev.Evaluate(ctx, i, t, c); err != nil {
				return fault.Wrap(err, fault.KValidation, ErrConditionNotMet.Error())
			}
		default:
			return fault.Wrap(ErrUnknownConditionType, fault.KValidation, string(c.Type))
		}
	}

	return nil
}

// runActions executes business actions in order, actions without
// a registered executor are recorded as skipped
func (e *Engine) runActions(ctx context.Context, i Instance, t Transition) ([]ActionResult, error) {
	if len(t.BusinessActions) == 0 {
		return nil, nil
	}

	results := make([]ActionResult, 0, len(t.BusinessActions))

	for _, a := range t.BusinessActions {
		e.RLock()
		ex, ok := e.executors[strings.ToUpper(a.Type)]
		e.RUnlock()

		if !ok {
			results = append(results, ActionResult{
				Type:    a.Type,
				Status:  ActionSkipped,
				Message: "no executor registered",
			})

			continue
		}

		r, err := ex.Execute(ctx, i, t, a)
		if err != nil {
			e.Logger().Warn(
				"business action failed",
				zap.String("instance_id", i.ID),
				zap.String("transition_id", t.ID),
				zap.String("action", a.Type),
				zap.Error(err),
			)

			return nil, fault.Wrap(err, fault.KValidation, ErrActionFailed.Error()+": "+a.Type)
		}

		if r.Type == "" {
			r.Type = a.Type
		}

		if r.Status == "" {
			r.Status = ActionSucceeded
		}

		results = append(results, r)
	}

	return results, nil
}

// mutate applies a change to an instance under the same
// compare-and-swap discipline as transitions
func (e *Engine) mutate(ctx context.Context, instanceID string, fn func(next *Instance, now time.Time) error) (Instance, error) {
	current, err := e.instances.FetchInstanceByID(ctx, instanceID)
	if err != nil {
		return Instance{}, err
	}

	now := e.clock.Now()
	next := current.Clone()

	if err = fn(&next, now); err != nil {
		return Instance{}, err
	}

	if err = e.commit(ctx, current, &next, now); err != nil {
		return Instance{}, err
	}

	return next, nil
}

// AddComment appends a comment to an instance
func (e *Engine) AddComment(ctx context.Context, instanceID, userID, text string) (Instance, error) {
	if strings.TrimSpace(userID) == "" {
		return Instance{}, ErrEmptyUserID
	}

	if text = strings.TrimSpace(text); text == "" {
		return Instance{}, ErrEmptyComment
	}

	return e.mutate(ctx, instanceID, func(next *Instance, now time.Time) error {
		next.Comments = append(next.Comments, Comment{
			ID:        uuid.New().String(),
			UserID:    userID,
			Text:      text,
			CreatedAt: now,
		})

		return nil
	})
}

// AssignToUser makes a user responsible for an instance
func (e *Engine) AssignToUser(ctx context.Context, instanceID, userID, role string) (Instance, error) {
	if strings.TrimSpace(userID) == "" {
		return Instance{}, ErrEmptyUserID
	}

	i, err := e.mutate(ctx, instanceID, func(next *Instance, now time.Time) error {
		next.AssignedTo = &Assignment{
			UserID:     userID,
			Role:       role,
			AssignedAt: now,
		}

		return nil
	})
	if err != nil {
		return i, err
	}

	e.Logger().Info(
		"workflow instance assigned",
		zap.String("instance_id", instanceID),
		zap.String("user_id", userID),
		zap.String("role", role),
	)

	return i, nil
}

// AddAttachment attaches a file reference to an instance
func (e *Engine) AddAttachment(ctx context.Context, instanceID string, a Attachment, uploadedBy string) (Instance, error) {
	if strings.TrimSpace(uploadedBy) == "" {
		return Instance{}, ErrEmptyUserID
	}

	if ok, err := govalidator.ValidateStruct(a); !ok || err != nil {
		return Instance{}, fault.Wrap(ErrInvalidAttachment, fault.KValidation, fmt.Sprint(err))
	}

	return e.mutate(ctx, instanceID, func(next *Instance, now time.Time) error {
		a.ID = uuid.New().String()
		a.UploadedBy = uploadedBy
		a.UploadedAt = now

		next.Attachments = append(next.Attachments, a)

		return nil
	})
}

//---------------------------------------------------------------------------
// queries
//---------------------------------------------------------------------------

// Instance returns an instance by its id
func (e *Engine) Instance(ctx context.Context, instanceID string) (Instance, error) {
	return e.instances.FetchInstanceByID(ctx, instanceID)
}

// AvailableTransitions returns transitions leaving the current state of
// an instance; an empty list means no actions are available, which is
// not an error
func (e *Engine) AvailableTransitions(ctx context.Context, instanceID string) ([]Transition, error) {
	i, err := e.instances.FetchInstanceByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	def, err := e.definitionOf(ctx, i)
	if err != nil {
		return nil, err
	}

	return def.TransitionsFromState(i.CurrentState), nil
}

// IsTerminal tells whether an instance rests in a final state,
// a state without outgoing transitions is not final by itself
func (e *Engine) IsTerminal(ctx context.Context, instanceID string) (bool, error) {
	i, err := e.instances.FetchInstanceByID(ctx, instanceID)
	if err != nil {
		return false, err
	}

	def, err := e.definitionOf(ctx, i)
	if err != nil {
		return false, err
	}

	s, ok := def.State(i.CurrentState)
	if !ok {
		e.Logger().Error(
			"instance rests in an unknown state",
			zap.String("instance_id", i.ID),
			zap.String("state", i.CurrentState),
		)

		return false, ErrCorruptDefinition
	}

	return s.IsFinal, nil
}

// InstancesByDefinition returns every instance of a definition
func (e *Engine) InstancesByDefinition(ctx context.Context, definitionID string) ([]Instance, error) {
	return e.instances.FetchInstancesByDefinition(ctx, definitionID)
}

// InstancesByState returns instances of a domain resting in a given state
func (e *Engine) InstancesByState(ctx context.Context, domainID, state string) ([]Instance, error) {
	return e.instances.FetchInstancesByState(ctx, domainID, state)
}

// InstancesAssignedTo returns instances assigned to a given user
func (e *Engine) InstancesAssignedTo(ctx context.Context, userID string) ([]Instance, error) {
	return e.instances.FetchInstancesByAssignee(ctx, userID)
}

// InstanceByRecord returns the instance bound to a business record
func (e *Engine) InstanceByRecord(ctx context.Context, domainID, recordID string) (Instance, error) {
	return e.instances.FetchInstanceByRecord(ctx, domainID, recordID)
}
