package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/agubarev/lowcode/pkg/fault"
	"github.com/asaskevich/govalidator"
)

// ActionType is a closed set of transition kinds, used by clients
// to render transitions; the engine itself doesn't depend on it
type ActionType string

// transition action types
const (
	ActionSubmit   ActionType = "SUBMIT"
	ActionApprove  ActionType = "APPROVE"
	ActionReject   ActionType = "REJECT"
	ActionCancel   ActionType = "CANCEL"
	ActionProgress ActionType = "PROGRESS"
	ActionComplete ActionType = "COMPLETE"
)

// Validate rejects anything outside of the known set, empty is allowed
func (t ActionType) Validate() error {
	switch t {
	case "", ActionSubmit, ActionApprove, ActionReject, ActionCancel, ActionProgress, ActionComplete:
		return nil
	default:
		return fault.Wrap(ErrUnknownActionType, fault.KValidation, string(t))
	}
}

// ConditionType designates how a transition condition is evaluated
type ConditionType string

// condition types
const (
	ConditionFieldRequired    ConditionType = "FIELD_REQUIRED"
	ConditionMinItems         ConditionType = "MIN_ITEMS"
	ConditionCustomValidation ConditionType = "CUSTOM_VALIDATION"
)

// Validate rejects unknown condition types
func (t ConditionType) Validate() error {
	switch t {
	case ConditionFieldRequired, ConditionMinItems, ConditionCustomValidation:
		return nil
	default:
		return fault.Wrap(ErrUnknownConditionType, fault.KValidation, string(t))
	}
}

// StatePermissions is a per-role UI hint, not enforced by the engine
type StatePermissions struct {
	CanView   bool `json:"can_view" yaml:"can_view"`
	CanEdit   bool `json:"can_edit" yaml:"can_edit"`
	CanDelete bool `json:"can_delete" yaml:"can_delete"`
}

// DefaultStatePermissions only allows viewing
func DefaultStatePermissions() StatePermissions {
	return StatePermissions{CanView: true}
}

// State is a node of a workflow
type State struct {
	ID          string                      `json:"id" yaml:"id"`
	Name        string                      `json:"name" yaml:"name"`
	Description string                      `json:"description,omitempty" yaml:"description,omitempty"`
	IsInitial   bool                        `json:"is_initial" yaml:"is_initial"`
	IsFinal     bool                        `json:"is_final" yaml:"is_final"`
	Color       string                      `json:"color,omitempty" yaml:"color,omitempty"`
	Permissions map[string]StatePermissions `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// Condition must hold for a transition to be applied
type Condition struct {
	Type   ConditionType `json:"type" yaml:"type"`
	Fields []string      `json:"fields,omitempty" yaml:"fields,omitempty"`
	Value  interface{}   `json:"value,omitempty" yaml:"value,omitempty"`
}

// BusinessAction is an opaque extension point executed along with
// a transition, see ActionExecutor
type BusinessAction struct {
	Type          string      `json:"type" yaml:"type"`
	Description   string      `json:"description,omitempty" yaml:"description,omitempty"`
	Configuration interface{} `json:"configuration,omitempty" yaml:"configuration,omitempty"`
}

// Transition is a directed, named edge between two states
type Transition struct {
	ID              string           `json:"id" yaml:"id"`
	Name            string           `json:"name" yaml:"name"`
	FromState       string           `json:"from_state" yaml:"from_state"`
	ToState         string           `json:"to_state" yaml:"to_state"`
	ActionType      ActionType       `json:"action_type,omitempty" yaml:"action_type,omitempty"`
	Icon            string           `json:"icon,omitempty" yaml:"icon,omitempty"`
	AllowedRoles    []string         `json:"allowed_roles,omitempty" yaml:"allowed_roles,omitempty"`
	Conditions      []Condition      `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	BusinessActions []BusinessAction `json:"business_actions,omitempty" yaml:"business_actions,omitempty"`
	RequiredFields  []string         `json:"required_fields,omitempty" yaml:"required_fields,omitempty"`
}

// Definition is a domain-scoped template of states and transitions
// for a given record type (model)
type Definition struct {
	ID          string       `json:"id" yaml:"id,omitempty"`
	DomainID    string       `json:"domain_id" yaml:"domain_id,omitempty" valid:"required"`
	Name        string       `json:"name" yaml:"name" valid:"required"`
	Description string       `json:"description" yaml:"description,omitempty"`
	ModelID     string       `json:"model_id" yaml:"model_id,omitempty"`
	Icon        string       `json:"icon" yaml:"icon,omitempty"`
	States      []State      `json:"states" yaml:"states"`
	Transitions []Transition `json:"transitions" yaml:"transitions"`
	Version     int          `json:"version" yaml:"-"`
	IsActive    bool         `json:"is_active" yaml:"-"`
	CreatedBy   string       `json:"created_by" yaml:"-"`
	CreatedAt   time.Time    `json:"created_at" yaml:"-"`
	UpdatedAt   time.Time    `json:"updated_at" yaml:"-"`
}

// Clone returns a copy which shares no states, transitions or
// their nested slices and maps with the original
// NOTE: condition values and action configurations are copied shallowly
func (d Definition) Clone() Definition {
	c := d

	if d.States != nil {
		c.States = make([]State, len(d.States))
		for i, s := range d.States {
			if s.Permissions != nil {
				perms := make(map[string]StatePermissions, len(s.Permissions))
				for role, p := range s.Permissions {
					perms[role] = p
				}

				s.Permissions = perms
			}

			c.States[i] = s
		}
	}

	if d.Transitions != nil {
		c.Transitions = make([]Transition, len(d.Transitions))
		for i, t := range d.Transitions {
			t.AllowedRoles = copyStrings(t.AllowedRoles)
			t.RequiredFields = copyStrings(t.RequiredFields)

			if t.Conditions != nil {
				conds := make([]Condition, len(t.Conditions))
				for j, cond := range t.Conditions {
					cond.Fields = copyStrings(cond.Fields)
					conds[j] = cond
				}

				t.Conditions = conds
			}

			if t.BusinessActions != nil {
				actions := make([]BusinessAction, len(t.BusinessActions))
				copy(actions, t.BusinessActions)
				t.BusinessActions = actions
			}

			c.Transitions[i] = t
		}
	}

	return c
}

func copyStrings(ss []string) []string {
	if ss == nil {
		return nil
	}

	c := make([]string, len(ss))
	copy(c, ss)

	return c
}

// InitialState returns the unique initial state, the flag
// is false if there is none or more than one
func (d Definition) InitialState() (State, bool) {
	var (
		initial State
		count   int
	)

	for _, s := range d.States {
		if s.IsInitial {
			initial = s
			count++
		}
	}

	return initial, count == 1
}

// State returns a state by its id
func (d Definition) State(id string) (State, bool) {
	for _, s := range d.States {
		if s.ID == id {
			return s, true
		}
	}

	return State{}, false
}

// Transition returns a transition by its id
func (d Definition) Transition(id string) (Transition, bool) {
	for _, t := range d.Transitions {
		if t.ID == id {
			return t, true
		}
	}

	return Transition{}, false
}

// TransitionsFromState returns every transition leaving a given state,
// the result is empty, but never nil, when there are none
func (d Definition) TransitionsFromState(stateID string) []Transition {
	ts := make([]Transition, 0)
	for _, t := range d.Transitions {
		if t.FromState == stateID {
			ts = append(ts, t)
		}
	}

	return ts
}

// IsValidTransition tells whether a transition exists and leaves a given state
func (d Definition) IsValidTransition(fromState, transitionID string) bool {
	t, ok := d.Transition(transitionID)
	return ok && t.FromState == fromState
}

// IsValidTransition is the authority consulted before an instance is moved
func IsValidTransition(d Definition, fromState, transitionID string) bool {
	return d.IsValidTransition(fromState, transitionID)
}

// Validate performs a definition self-check
func (d Definition) Validate() error {
	return ValidateDefinition(d)
}

// ValidateDefinition enforces the structural invariants of a definition
func ValidateDefinition(d Definition) error {
	if ok, err := govalidator.ValidateStruct(d); !ok || err != nil {
		return fault.Wrap(ErrInvalidDefinition, fault.KValidation, fmt.Sprint(err))
	}

	if len(d.States) == 0 {
		return ErrNoStates
	}

	initials := 0
	states := make(map[string]bool, len(d.States))
	for _, s := range d.States {
		if strings.TrimSpace(s.ID) == "" {
			return ErrEmptyStateID
		}

		if states[s.ID] {
			return fault.Wrap(ErrDuplicateState, fault.KValidation, s.ID)
		}

		states[s.ID] = true

		if s.IsInitial {
			initials++
		}
	}

	switch {
	case initials == 0:
		return ErrNoInitialState
	case initials > 1:
		return ErrMultipleInitialStates
	}

	transitions := make(map[string]bool, len(d.Transitions))
	for _, t := range d.Transitions {
		if strings.TrimSpace(t.ID) == "" {
			return ErrEmptyTransitionID
		}

		if transitions[t.ID] {
			return fault.Wrap(ErrDuplicateTransition, fault.KValidation, t.ID)
		}

		transitions[t.ID] = true

		if !states[t.FromState] {
			return fault.Wrap(ErrUnknownState, fault.KValidation, fmt.Sprintf("%s: from %q", t.ID, t.FromState))
		}

		if !states[t.ToState] {
			return fault.Wrap(ErrUnknownState, fault.KValidation, fmt.Sprintf("%s: to %q", t.ID, t.ToState))
		}

		if err := t.ActionType.Validate(); err != nil {
			return err
		}

		for _, c := range t.Conditions {
			if err := c.Type.Validate(); err != nil {
				return err
			}
		}
	}

	return nil
}
