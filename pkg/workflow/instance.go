package workflow

import (
	"strings"
	"time"
)

// ActionStatus is an outcome of a business action
type ActionStatus string

// action statuses
const (
	ActionSucceeded ActionStatus = "SUCCESS"
	ActionFailed    ActionStatus = "FAILED"
	ActionSkipped   ActionStatus = "SKIPPED"
)

// ActionResult is recorded in a history entry for every
// business action of an applied transition
type ActionResult struct {
	Type    string                 `json:"type"`
	Status  ActionStatus           `json:"status"`
	Message string                 `json:"message,omitempty"`
	Output  map[string]interface{} `json:"output,omitempty"`
}

// HistoryEntry is an immutable record of an applied transition
type HistoryEntry struct {
	TransitionID  string         `json:"transition_id"`
	FromState     string         `json:"from_state"`
	ToState       string         `json:"to_state"`
	PerformedBy   string         `json:"performed_by"`
	PerformedAt   time.Time      `json:"performed_at"`
	Comment       string         `json:"comment,omitempty"`
	ActionResults []ActionResult `json:"action_results,omitempty"`
}

// Assignment tells who is currently responsible for an instance
type Assignment struct {
	UserID     string    `json:"user_id"`
	Role       string    `json:"role"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Comment is a note left on an instance
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment is a file reference attached to an instance
type Attachment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" valid:"required"`
	URL         string    `json:"url" valid:"required,url"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Instance is a running execution of a definition,
// bound to a single business record
type Instance struct {
	ID            string                 `json:"id"`
	DefinitionID  string                 `json:"definition_id"`
	DomainID      string                 `json:"domain_id"`
	ModelID       string                 `json:"model_id"`
	RecordID      string                 `json:"record_id"`
	CurrentState  string                 `json:"current_state"`
	PreviousState string                 `json:"previous_state"`
	AssignedTo    *Assignment            `json:"assigned_to,omitempty"`
	Data          map[string]interface{} `json:"data"`
	History       []HistoryEntry         `json:"history"`
	Comments      []Comment              `json:"comments"`
	Attachments   []Attachment           `json:"attachments"`

	// Revision is incremented with every persisted mutation
	Revision int64 `json:"revision"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssigneeID returns the id of the assigned user, if any
func (i Instance) AssigneeID() string {
	if i.AssignedTo == nil {
		return ""
	}

	return i.AssignedTo.UserID
}

// LastTransition returns the most recent history entry
func (i Instance) LastTransition() (HistoryEntry, bool) {
	if len(i.History) == 0 {
		return HistoryEntry{}, false
	}

	return i.History[len(i.History)-1], true
}

// Clone returns a copy which shares nothing mutable with the original
// NOTE: data values themselves are copied shallowly
func (i Instance) Clone() Instance {
	c := i

	if i.AssignedTo != nil {
		a := *i.AssignedTo
		c.AssignedTo = &a
	}

	c.Data = make(map[string]interface{}, len(i.Data))
	for k, v := range i.Data {
		c.Data[k] = v
	}

	c.History = make([]HistoryEntry, len(i.History))
	copy(c.History, i.History)

	c.Comments = make([]Comment, len(i.Comments))
	copy(c.Comments, i.Comments)

	c.Attachments = make([]Attachment, len(i.Attachments))
	copy(c.Attachments, i.Attachments)

	return c
}

// mergeData returns a new map with the additional values laid
// over the existing ones, last write wins per key
func mergeData(base, additional map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(additional))
	for k, v := range base {
		merged[k] = v
	}

	for k, v := range additional {
		merged[k] = v
	}

	return merged
}

// isBlank tells whether a data value counts as missing
func isBlank(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []interface{}:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case map[string]interface{}:
		return len(x) == 0
	default:
		return false
	}
}
