package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/agubarev/lowcode/pkg/fault"
	"github.com/agubarev/lowcode/pkg/util"
	"github.com/agubarev/lowcode/pkg/workflow"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store   workflow.Store
	manager *workflow.Manager
	engine  *workflow.Engine
	clock   *util.FixedClock
	def     workflow.Definition
}

func newFixture(t *testing.T, s workflow.Store, def workflow.Definition) *fixture {
	m, clock := newManager(t, s)

	def, err := m.CreateWorkflow(context.Background(), def)
	require.NoError(t, err)

	e, err := workflow.NewEngine(s, s)
	require.NoError(t, err)
	require.NoError(t, e.SetLogger(zap.NewNop()))
	e.SetClock(clock)

	return &fixture{
		store:   s,
		manager: m,
		engine:  e,
		clock:   clock,
		def:     def,
	}
}

func (f *fixture) instance(t *testing.T, recordID string) workflow.Instance {
	i, err := f.engine.CreateInstance(
		context.Background(),
		f.def.ID,
		f.def.DomainID,
		recordID,
		map[string]interface{}{"amount": 120.0},
		"alice",
	)
	require.NoError(t, err)

	return i
}

// barrierStore holds every instance read until the expected number
// of readers have fetched the same snapshot
type barrierStore struct {
	workflow.Store
	readers *sync.WaitGroup
}

func (s barrierStore) FetchInstanceByID(ctx context.Context, id string) (workflow.Instance, error) {
	i, err := s.Store.FetchInstanceByID(ctx, id)

	s.readers.Done()
	s.readers.Wait()

	return i, err
}

type evaluatorFunc func(ctx context.Context, i workflow.Instance, t workflow.Transition, c workflow.Condition) error

func (f evaluatorFunc) Evaluate(ctx context.Context, i workflow.Instance, t workflow.Transition, c workflow.Condition) error {
	return f(ctx, i, t, c)
}

func TestNewEngine(t *testing.T) {
	a := assert.New(t)

	_, err := workflow.NewEngine(nil, workflow.NewMemoryStore())
	a.Equal(workflow.ErrNilStore, err)

	_, err = workflow.NewEngine(workflow.NewMemoryStore(), nil)
	a.Equal(workflow.ErrNilStore, err)

	e, err := workflow.NewEngine(workflow.NewMemoryStore(), workflow.NewMemoryStore())
	a.NoError(err)
	a.NotNil(e.Logger())
	a.Equal(workflow.ErrNilActionHandler, e.RegisterAction("NOTIFY", nil))
}

func TestEngine_CreateInstance(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	f := newFixture(t, workflow.NewMemoryStore(), approvalDefinition("acme"))

	i, err := f.engine.CreateInstance(ctx, f.def.ID, "acme", "rec-1", map[string]interface{}{"amount": 120.0}, "alice")
	a.NoError(err)
	a.NotEmpty(i.ID)
	a.Equal("draft", i.CurrentState)
	a.Empty(i.PreviousState)
	a.Equal("expense", i.ModelID)
	a.Equal(int64(1), i.Revision)
	a.Equal(epoch, i.CreatedAt)
	a.NotNil(i.History)
	a.Empty(i.History)
	a.NotNil(i.Comments)
	a.NotNil(i.Attachments)

	stored, err := f.engine.InstanceByRecord(ctx, "acme", "rec-1")
	a.NoError(err)
	a.Equal(i.ID, stored.ID)

	// a definition of another tenant is invisible
	_, err = f.engine.CreateInstance(ctx, f.def.ID, "globex", "rec-2", nil, "alice")
	a.Equal(workflow.ErrDefinitionNotFound, err)

	_, err = f.engine.CreateInstance(ctx, "missing", "acme", "rec-2", nil, "alice")
	a.True(fault.IsNotFound(err))

	// inactive definitions can't be started
	_, err = f.manager.DeactivateWorkflow(ctx, f.def.ID, "acme")
	a.NoError(err)

	_, err = f.engine.CreateInstance(ctx, f.def.ID, "acme", "rec-2", nil, "alice")
	a.Equal(workflow.ErrInactiveDefinition, err)
	a.True(fault.Is(err, fault.KValidation))

	// a stored definition which lost its initial state
	corrupt := storedDefinition("corrupt", "acme", "expense")
	corrupt.States[0].IsInitial = false
	a.NoError(f.store.CreateDefinition(ctx, corrupt))

	_, err = f.engine.CreateInstance(ctx, "corrupt", "acme", "rec-3", nil, "alice")
	a.Equal(workflow.ErrCorruptDefinition, err)
	a.True(fault.Is(err, fault.KInternal))
}

func TestEngine_StateMachine(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	f := newFixture(t, workflow.NewMemoryStore(), approvalDefinition("acme"))
	i := f.instance(t, "rec-1")

	// skipping a step
	_, err := f.engine.ExecuteTransition(ctx, i.ID, "approve", "bob", "", nil)
	a.Equal(workflow.ErrInvalidTransition, err)
	a.True(fault.Is(err, fault.KInvalidTransition))

	// unknown transition
	_, err = f.engine.ExecuteTransition(ctx, i.ID, "teleport", "bob", "", nil)
	a.Equal(workflow.ErrTransitionNotFound, err)
	a.True(fault.Is(err, fault.KInvalidTransition))

	// unknown instance
	_, err = f.engine.ExecuteTransition(ctx, "missing", "submit", "bob", "", nil)
	a.Equal(workflow.ErrInstanceNotFound, err)

	// nobody
	_, err = f.engine.ExecuteTransition(ctx, i.ID, "submit", " ", "", nil)
	a.Equal(workflow.ErrEmptyUserID, err)

	// rejected attempts leave no trace
	stored, err := f.engine.Instance(ctx, i.ID)
	a.NoError(err)
	a.Equal("draft", stored.CurrentState)
	a.Equal(int64(1), stored.Revision)
	a.Empty(stored.History)

	f.clock.Advance(time.Minute)

	next, err := f.engine.ExecuteTransition(ctx, i.ID, "submit", "alice", "please approve", map[string]interface{}{"currency": "EUR"})
	a.NoError(err)
	a.Equal("pending_approval", next.CurrentState)
	a.Equal("draft", next.PreviousState)
	a.Equal(int64(2), next.Revision)
	a.Equal(epoch.Add(time.Minute), next.UpdatedAt)
	a.Equal(120.0, next.Data["amount"])
	a.Equal("EUR", next.Data["currency"])

	require.Len(t, next.History, 1)
	h := next.History[0]
	a.Equal("submit", h.TransitionID)
	a.Equal("draft", h.FromState)
	a.Equal("pending_approval", h.ToState)
	a.Equal("alice", h.PerformedBy)
	a.Equal("please approve", h.Comment)
	a.Equal(epoch.Add(time.Minute), h.PerformedAt)

	stored, err = f.engine.Instance(ctx, i.ID)
	a.NoError(err)
	a.Equal(next.CurrentState, stored.CurrentState)
	a.Equal(next.Revision, stored.Revision)

	// submitting twice
	_, err = f.engine.ExecuteTransition(ctx, i.ID, "submit", "alice", "", nil)
	a.Equal(workflow.ErrInvalidTransition, err)

	next, err = f.engine.ExecuteTransition(ctx, i.ID, "reject", "bob", "over budget", nil)
	a.NoError(err)
	a.Equal("rejected", next.CurrentState)
	a.Equal("pending_approval", next.PreviousState)
	a.Len(next.History, 2)

	// final
	_, err = f.engine.ExecuteTransition(ctx, i.ID, "approve", "bob", "", nil)
	a.Equal(workflow.ErrInvalidTransition, err)
}

func TestEngine_AvailableTransitions(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	def := approvalDefinition("acme")
	def.States = append(def.States, workflow.State{ID: "on_hold", Name: "On hold"})
	def.Transitions = append(def.Transitions, workflow.Transition{
		ID:        "hold",
		FromState: "pending_approval",
		ToState:   "on_hold",
	})

	f := newFixture(t, workflow.NewMemoryStore(), def)
	i := f.instance(t, "rec-1")

	ts, err := f.engine.AvailableTransitions(ctx, i.ID)
	a.NoError(err)
	require.Len(t, ts, 1)
	a.Equal("submit", ts[0].ID)

	terminal, err := f.engine.IsTerminal(ctx, i.ID)
	a.NoError(err)
	a.False(terminal)

	_, err = f.engine.ExecuteTransition(ctx, i.ID, "submit", "alice", "", nil)
	a.NoError(err)

	ts, err = f.engine.AvailableTransitions(ctx, i.ID)
	a.NoError(err)
	a.Len(ts, 3)

	// a dead end is not a final state
	_, err = f.engine.ExecuteTransition(ctx, i.ID, "hold", "bob", "", nil)
	a.NoError(err)

	ts, err = f.engine.AvailableTransitions(ctx, i.ID)
	a.NoError(err)
	a.NotNil(ts)
	a.Empty(ts)

	terminal, err = f.engine.IsTerminal(ctx, i.ID)
	a.NoError(err)
	a.False(terminal)

	// final state
	j := f.instance(t, "rec-2")

	_, err = f.engine.ExecuteTransition(ctx, j.ID, "submit", "alice", "", nil)
	a.NoError(err)

	_, err = f.engine.ExecuteTransition(ctx, j.ID, "approve", "bob", "", nil)
	a.NoError(err)

	ts, err = f.engine.AvailableTransitions(ctx, j.ID)
	a.NoError(err)
	a.Empty(ts)

	terminal, err = f.engine.IsTerminal(ctx, j.ID)
	a.NoError(err)
	a.True(terminal)

	_, err = f.engine.AvailableTransitions(ctx, "missing")
	a.Equal(workflow.ErrInstanceNotFound, err)
}

func TestEngine_OrphanedInstance(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	f := newFixture(t, workflow.NewMemoryStore(), approvalDefinition("acme"))
	i := f.instance(t, "rec-1")

	a.NoError(f.manager.DeleteWorkflow(ctx, f.def.ID, "acme"))

	_, err := f.engine.ExecuteTransition(ctx, i.ID, "submit", "alice", "", nil)
	a.Equal(workflow.ErrOrphanedInstance, err)
	a.True(fault.Is(err, fault.KInternal))

	_, err = f.engine.AvailableTransitions(ctx, i.ID)
	a.Equal(workflow.ErrOrphanedInstance, err)

	_, err = f.engine.IsTerminal(ctx, i.ID)
	a.Equal(workflow.ErrOrphanedInstance, err)

	// the instance itself is still readable
	stored, err := f.engine.Instance(ctx, i.ID)
	a.NoError(err)
	a.Equal("draft", stored.CurrentState)
}

func TestEngine_Conditions(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	def := approvalDefinition("acme")
	def.Transitions[0].RequiredFields = []string{"amount", "reason"}
	def.Transitions[0].Conditions = []workflow.Condition{
		{Type: workflow.ConditionFieldRequired, Fields: []string{"cost_center"}},
		{Type: workflow.ConditionMinItems, Fields: []string{"receipts"}, Value: 2},
	}
	def.Transitions[1].Conditions = []workflow.Condition{
		{Type: workflow.ConditionCustomValidation, Value: "amount_within_budget"},
	}

	f := newFixture(t, workflow.NewMemoryStore(), def)
	i := f.instance(t, "rec-1")

	// reason is missing
	_, err := f.engine.ExecuteTransition(ctx, i.ID, "submit", "alice", "", nil)
	a.True(errors.Is(err, workflow.ErrMissingRequiredFields))
	a.True(fault.Is(err, fault.KValidation))
	a.Contains(err.Error(), "reason")

	// blank values don't count
	_, err = f.engine.ExecuteTransition(ctx, i.ID, "submit", "alice", "", map[string]interface{}{
		"reason":      "conference",
		"cost_center": "  ",
	})
	a.True(errors.Is(err, workflow.ErrMissingRequiredFields))
	a.Contains(err.Error(), "cost_center")

	// not enough receipts
	_, err = f.engine.ExecuteTransition(ctx, i.ID, "submit", "alice", "", map[string]interface{}{
		"reason":      "conference",
		"cost_center": "R&D",
		"receipts":    []interface{}{"hotel.pdf"},
	})
	a.True(errors.Is(err, workflow.ErrConditionNotMet))

	// not a list at all
	_, err = f.engine.ExecuteTransition(ctx, i.ID, "submit", "alice", "", map[string]interface{}{
		"reason":      "conference",
		"cost_center": "R&D",
		"receipts":    "hotel.pdf",
	})
	a.True(errors.Is(err, workflow.ErrConditionNotMet))

	// failed attempts don't leak additional data into the instance
	stored, err := f.engine.Instance(ctx, i.ID)
	a.NoError(err)
	a.NotContains(stored.Data, "reason")
	a.Equal(int64(1), stored.Revision)

	i, err = f.engine.ExecuteTransition(ctx, i.ID, "submit", "alice", "", map[string]interface{}{
		"reason":      "conference",
		"cost_center": "R&D",
		"receipts":    []interface{}{"hotel.pdf", "train.pdf"},
	})
	a.NoError(err)
	a.Equal("pending_approval", i.CurrentState)

	// custom validation without an evaluator
	_, err = f.engine.ExecuteTransition(ctx, i.ID, "approve", "bob", "", nil)
	a.Equal(workflow.ErrNoConditionEvaluator, err)
	a.True(fault.Is(err, fault.KValidation))

	var seen workflow.Condition
	f.engine.SetConditionEvaluator(evaluatorFunc(func(ctx context.Context, i workflow.Instance, t workflow.Transition, c workflow.Condition) error {
		seen = c

		if amount, _ := i.Data["amount"].(float64); amount > 100 {
			return errors.New("amount exceeds the budget")
		}

		return nil
	}))

	_, err = f.engine.ExecuteTransition(ctx, i.ID, "approve", "bob", "", nil)
	a.True(fault.Is(err, fault.KValidation))
	a.Contains(err.Error(), "amount exceeds the budget")
	a.Equal("amount_within_budget", seen.Value)

	i, err = f.engine.ExecuteTransition(ctx, i.ID, "approve", "bob", "", map[string]interface{}{"amount": 80.0})
	a.NoError(err)
	a.Equal("approved", i.CurrentState)
	a.Equal(80.0, i.Data["amount"])
}

func TestEngine_BusinessActions(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	def := approvalDefinition("acme")
	def.Transitions[0].BusinessActions = []workflow.BusinessAction{
		{Type: "notify", Configuration: map[string]interface{}{"channel": "finance"}},
		{Type: "archive"},
	}
	def.Transitions[1].BusinessActions = []workflow.BusinessAction{
		{Type: "payout"},
	}

	f := newFixture(t, workflow.NewMemoryStore(), def)
	i := f.instance(t, "rec-1")

	calls := 0
	a.NoError(f.engine.RegisterAction("NOTIFY", workflow.ActionExecutorFunc(
		func(ctx context.Context, i workflow.Instance, t workflow.Transition, ba workflow.BusinessAction) (workflow.ActionResult, error) {
			calls++

			return workflow.ActionResult{
				Message: "sent",
				Output:  map[string]interface{}{"recipients": 3},
			}, nil
		},
	)))

	a.NoError(f.engine.RegisterAction("payout", workflow.ActionExecutorFunc(
		func(ctx context.Context, i workflow.Instance, t workflow.Transition, ba workflow.BusinessAction) (workflow.ActionResult, error) {
			return workflow.ActionResult{}, errors.New("bank is closed")
		},
	)))

	i, err := f.engine.ExecuteTransition(ctx, i.ID, "submit", "alice", "", nil)
	a.NoError(err)
	a.Equal(1, calls)

	require.Len(t, i.History, 1)
	results := i.History[0].ActionResults
	require.Len(t, results, 2)

	a.Equal("notify", results[0].Type)
	a.Equal(workflow.ActionSucceeded, results[0].Status)
	a.Equal("sent", results[0].Message)

	// no executor for it
	a.Equal("archive", results[1].Type)
	a.Equal(workflow.ActionSkipped, results[1].Status)

	// a failing action aborts the transition
	_, err = f.engine.ExecuteTransition(ctx, i.ID, "approve", "bob", "", nil)
	a.True(fault.Is(err, fault.KValidation))
	a.Contains(err.Error(), "payout")
	a.Contains(err.Error(), "bank is closed")

	stored, err := f.engine.Instance(ctx, i.ID)
	a.NoError(err)
	a.Equal("pending_approval", stored.CurrentState)
	a.Len(stored.History, 1)
}

func TestEngine_CommentsAndAssignment(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	f := newFixture(t, workflow.NewMemoryStore(), approvalDefinition("acme"))
	i := f.instance(t, "rec-1")

	//---------------------------------------------------------------------------
	// comments
	//---------------------------------------------------------------------------
	_, err := f.engine.AddComment(ctx, i.ID, "alice", "   ")
	a.Equal(workflow.ErrEmptyComment, err)

	_, err = f.engine.AddComment(ctx, i.ID, "", "hello")
	a.Equal(workflow.ErrEmptyUserID, err)

	_, err = f.engine.AddComment(ctx, "missing", "alice", "hello")
	a.Equal(workflow.ErrInstanceNotFound, err)

	i, err = f.engine.AddComment(ctx, i.ID, "alice", " receipts are attached ")
	a.NoError(err)
	require.Len(t, i.Comments, 1)
	a.NotEmpty(i.Comments[0].ID)
	a.Equal("receipts are attached", i.Comments[0].Text)
	a.Equal(int64(2), i.Revision)

	//---------------------------------------------------------------------------
	// assignment
	//---------------------------------------------------------------------------
	_, err = f.engine.AssignToUser(ctx, i.ID, "", "manager")
	a.Equal(workflow.ErrEmptyUserID, err)

	i, err = f.engine.AssignToUser(ctx, i.ID, "bob", "manager")
	a.NoError(err)
	a.Equal("bob", i.AssigneeID())
	a.Equal("manager", i.AssignedTo.Role)
	a.Equal(int64(3), i.Revision)

	assigned, err := f.engine.InstancesAssignedTo(ctx, "bob")
	a.NoError(err)
	require.Len(t, assigned, 1)
	a.Equal(i.ID, assigned[0].ID)

	// reassignment
	i, err = f.engine.AssignToUser(ctx, i.ID, "carol", "manager")
	a.NoError(err)

	assigned, err = f.engine.InstancesAssignedTo(ctx, "bob")
	a.NoError(err)
	a.Empty(assigned)

	//---------------------------------------------------------------------------
	// attachments
	//---------------------------------------------------------------------------
	_, err = f.engine.AddAttachment(ctx, i.ID, workflow.Attachment{Name: "receipt.pdf", URL: "not a url"}, "alice")
	a.True(errors.Is(err, workflow.ErrInvalidAttachment))
	a.True(fault.Is(err, fault.KValidation))

	_, err = f.engine.AddAttachment(ctx, i.ID, workflow.Attachment{URL: "https://files.acme.test/receipt.pdf"}, "alice")
	a.True(errors.Is(err, workflow.ErrInvalidAttachment))

	i, err = f.engine.AddAttachment(ctx, i.ID, workflow.Attachment{
		Name:        "receipt.pdf",
		URL:         "https://files.acme.test/receipt.pdf",
		ContentType: "application/pdf",
		Size:        2048,
	}, "alice")
	a.NoError(err)
	require.Len(t, i.Attachments, 1)
	a.NotEmpty(i.Attachments[0].ID)
	a.Equal("alice", i.Attachments[0].UploadedBy)
	a.Equal(epoch, i.Attachments[0].UploadedAt)

	// none of the above moves the instance
	a.Equal("draft", i.CurrentState)
	a.Empty(i.History)
}

func TestEngine_Queries(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	f := newFixture(t, workflow.NewMemoryStore(), approvalDefinition("acme"))
	first := f.instance(t, "rec-1")
	f.instance(t, "rec-2")

	_, err := f.engine.ExecuteTransition(ctx, first.ID, "submit", "alice", "", nil)
	a.NoError(err)

	is, err := f.engine.InstancesByDefinition(ctx, f.def.ID)
	a.NoError(err)
	a.Len(is, 2)

	is, err = f.engine.InstancesByState(ctx, "acme", "draft")
	a.NoError(err)
	require.Len(t, is, 1)
	a.Equal("rec-2", is[0].RecordID)

	is, err = f.engine.InstancesByState(ctx, "globex", "draft")
	a.NoError(err)
	a.Empty(is)

	i, err := f.engine.InstanceByRecord(ctx, "acme", "rec-1")
	a.NoError(err)
	a.Equal(first.ID, i.ID)

	_, err = f.engine.InstanceByRecord(ctx, "globex", "rec-1")
	a.True(fault.IsNotFound(err))
}

func TestEngine_ConcurrentTransitions(t *testing.T) {
	for name, factory := range map[string]storeFactory{
		"memory": memoryStore,
		"redis":  redisStore,
		"badger": badgerStore,
	} {
		factory := factory

		t.Run(name, func(t *testing.T) {
			a := assert.New(t)
			ctx := context.Background()

			f := newFixture(t, factory(t), approvalDefinition("acme"))
			i := f.instance(t, "rec-1")

			_, err := f.engine.ExecuteTransition(ctx, i.ID, "submit", "alice", "", nil)
			require.NoError(t, err)

			// both readers see pending_approval before either writes
			readers := &sync.WaitGroup{}
			readers.Add(2)

			e, err := workflow.NewEngine(f.store, barrierStore{Store: f.store, readers: readers})
			require.NoError(t, err)
			require.NoError(t, e.SetLogger(zap.NewNop()))

			errs := make([]error, 2)
			wg := &sync.WaitGroup{}

			for n, transitionID := range []string{"approve", "reject"} {
				wg.Add(1)

				go func(n int, transitionID string) {
					defer wg.Done()
					_, errs[n] = e.ExecuteTransition(ctx, i.ID, transitionID, "bob", "", nil)
				}(n, transitionID)
			}

			wg.Wait()

			succeeded, conflicts := 0, 0
			for _, err := range errs {
				switch {
				case err == nil:
					succeeded++
				case fault.IsConflict(err):
					conflicts++
				default:
					t.Fatalf("unexpected error: %s", err)
				}
			}

			a.Equal(1, succeeded)
			a.Equal(1, conflicts)

			stored, err := f.engine.Instance(ctx, i.ID)
			a.NoError(err)
			a.Contains([]string{"approved", "rejected"}, stored.CurrentState)
			a.Equal(int64(3), stored.Revision)
			a.Len(stored.History, 2)
		})
	}
}

func TestEngine_Metrics(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()

	reg := prometheus.NewRegistry()

	m, err := workflow.NewMetrics(reg)
	require.NoError(t, err)

	// registering twice
	_, err = workflow.NewMetrics(reg)
	a.Error(err)

	f := newFixture(t, workflow.NewMemoryStore(), approvalDefinition("acme"))
	f.engine.SetMetrics(m)

	i := f.instance(t, "rec-1")
	f.instance(t, "rec-2")
	a.Equal(2.0, testutil.ToFloat64(m.InstancesCreated))

	_, err = f.engine.ExecuteTransition(ctx, i.ID, "approve", "bob", "", nil)
	a.Error(err)

	_, err = f.engine.ExecuteTransition(ctx, i.ID, "submit", "alice", "", nil)
	a.NoError(err)

	a.NoError(f.manager.DeleteWorkflow(ctx, f.def.ID, "acme"))

	_, err = f.engine.ExecuteTransition(ctx, i.ID, "approve", "bob", "", nil)
	a.Equal(workflow.ErrOrphanedInstance, err)

	a.Equal(1.0, testutil.ToFloat64(m.Transitions.WithLabelValues(workflow.OutcomeApplied)))
	a.Equal(1.0, testutil.ToFloat64(m.Transitions.WithLabelValues(workflow.OutcomeRejected)))
	a.Equal(1.0, testutil.ToFloat64(m.Transitions.WithLabelValues(workflow.OutcomeFailed)))
	a.Equal(0.0, testutil.ToFloat64(m.Transitions.WithLabelValues(workflow.OutcomeConflict)))
}
