package workflow

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/agubarev/lowcode/pkg/fault"
)

// ActionExecutor runs a business action of a given type, it is an
// extension point and the engine ships no implementations
// NOTE: actions run before the transition is stored, so a transition that
// loses a concurrent write has already executed them; executors must be
// idempotent or able to compensate
type ActionExecutor interface {
	Execute(ctx context.Context, i Instance, t Transition, a BusinessAction) (ActionResult, error)
}

// ActionExecutorFunc is an adapter to use ordinary functions as executors
type ActionExecutorFunc func(ctx context.Context, i Instance, t Transition, a BusinessAction) (ActionResult, error)

// Execute calls f(ctx, i, t, a)
func (f ActionExecutorFunc) Execute(ctx context.Context, i Instance, t Transition, a BusinessAction) (ActionResult, error) {
	return f(ctx, i, t, a)
}

// ConditionEvaluator decides CUSTOM_VALIDATION conditions,
// returning nil if the condition holds
type ConditionEvaluator interface {
	Evaluate(ctx context.Context, i Instance, t Transition, c Condition) error
}

// checkRequiredFields makes sure every field is present and non-blank
func checkRequiredFields(data map[string]interface{}, fields []string) error {
	missing := make([]string, 0)
	for _, f := range fields {
		if isBlank(data[f]) {
			missing = append(missing, f)
		}
	}

	if len(missing) > 0 {
		return fault.Wrap(ErrMissingRequiredFields, fault.KValidation, strings.Join(missing, ", "))
	}

	return nil
}

// checkMinItems makes sure every field is a list of at least n items
func checkMinItems(data map[string]interface{}, fields []string, limit interface{}) error {
	n, ok := toInt(limit)
	if !ok {
		return fault.Wrap(ErrConditionNotMet, fault.KValidation, fmt.Sprintf("MIN_ITEMS: bad limit %v", limit))
	}

	for _, f := range fields {
		v := reflect.ValueOf(data[f])
		if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
			return fault.Wrap(ErrConditionNotMet, fault.KValidation, fmt.Sprintf("%s is not a list", f))
		}

		if v.Len() < n {
			return fault.Wrap(ErrConditionNotMet, fault.KValidation, fmt.Sprintf("%s needs at least %d items", f, n))
		}
	}

	return nil
}

func toInt(v interface{}) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case uint:
		return int(x), true
	case uint64:
		return int(x), true
	case float32:
		return int(x), true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}
