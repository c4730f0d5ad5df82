package workflow

import (
	"github.com/agubarev/lowcode/pkg/fault"
	"github.com/pkg/errors"
)

// errors
var (
	ErrNilStore         = errors.New("workflow store is nil")
	ErrNilDatabase      = errors.New("database is nil")
	ErrNilRedisClient   = errors.New("redis client is nil")
	ErrNilActionHandler = errors.New("action executor is nil")

	// definitions
	ErrDefinitionNotFound    = fault.New(fault.KNotFound, "workflow definition not found")
	ErrDuplicateDefinition   = fault.New(fault.KValidation, "workflow definition already exists")
	ErrInvalidDefinition     = fault.New(fault.KValidation, "invalid workflow definition")
	ErrNoStates              = fault.New(fault.KValidation, "workflow must have at least one state")
	ErrNoInitialState        = fault.New(fault.KValidation, "workflow must have at least one initial state")
	ErrMultipleInitialStates = fault.New(fault.KValidation, "workflow can only have one initial state")
	ErrEmptyStateID          = fault.New(fault.KValidation, "state id is empty")
	ErrDuplicateState        = fault.New(fault.KValidation, "duplicate state id")
	ErrEmptyTransitionID     = fault.New(fault.KValidation, "transition id is empty")
	ErrDuplicateTransition   = fault.New(fault.KValidation, "duplicate transition id")
	ErrUnknownState          = fault.New(fault.KValidation, "transition refers to an unknown state")
	ErrUnknownActionType     = fault.New(fault.KValidation, "unknown transition action type")
	ErrUnknownConditionType  = fault.New(fault.KValidation, "unknown transition condition type")
	ErrInactiveDefinition    = fault.New(fault.KValidation, "workflow definition is inactive")

	// instances
	ErrInstanceNotFound      = fault.New(fault.KNotFound, "workflow instance not found")
	ErrDuplicateInstance     = fault.New(fault.KValidation, "workflow instance already exists")
	ErrTransitionNotFound    = fault.New(fault.KInvalidTransition, "transition not found")
	ErrInvalidTransition     = fault.New(fault.KInvalidTransition, "invalid transition from current state")
	ErrConflict              = fault.New(fault.KConflict, "workflow instance has been modified concurrently")
	ErrMissingRequiredFields = fault.New(fault.KValidation, "required fields are missing")
	ErrConditionNotMet       = fault.New(fault.KValidation, "transition condition is not met")
	ErrNoConditionEvaluator  = fault.New(fault.KValidation, "custom validation is not supported")
	ErrEmptyUserID           = fault.New(fault.KValidation, "user id is empty")
	ErrEmptyComment          = fault.New(fault.KValidation, "comment text is empty")
	ErrInvalidAttachment     = fault.New(fault.KValidation, "invalid attachment")
	ErrActionFailed          = fault.New(fault.KValidation, "business action failed")

	// broken invariants of persisted data
	ErrOrphanedInstance  = fault.New(fault.KInternal, "workflow definition of a live instance is missing")
	ErrCorruptDefinition = fault.New(fault.KInternal, "persisted workflow definition is corrupt")
)
