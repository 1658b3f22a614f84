package core

import (
	"context"
	"time"
)

// FieldKey names a Record field. Values match the JSON keys.
type FieldKey string

const (
	FieldID                FieldKey = "id"
	FieldDeviceIdentifier  FieldKey = "deviceIdentifier"
	FieldManufacturerName  FieldKey = "manufacturerName"
	FieldProductName       FieldKey = "productName"
	FieldModelNumber       FieldKey = "modelNumber"
	FieldLotNumber         FieldKey = "lotNumber"
	FieldSerialNumber      FieldKey = "serialNumber"
	FieldProductionDate    FieldKey = "productionDate"
	FieldExpirationDate    FieldKey = "expirationDate"
	FieldSingleUse         FieldKey = "singleUse"
	FieldSterilized        FieldKey = "sterilized"
	FieldContainsLatex     FieldKey = "containsLatex"
	FieldContainsPhthalate FieldKey = "containsPhthalate"
	FieldStatus            FieldKey = "status"
)

// LockStatusColumn is the filter column that matches on Record.IsLocked.
// It is not a column of the grid.
const LockStatusColumn FieldKey = "isLocked"

// FieldType represents the editing and coercion type of a column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldBool
	FieldDate
)

// String returns the lowercase type name used in JSON and templates.
func (t FieldType) String() string {
	switch t {
	case FieldBool:
		return "boolean"
	case FieldDate:
		return "date"
	default:
		return "text"
	}
}

// MarshalText encodes the type by name.
func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Status is the derived validation state of a record.
type Status string

const (
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusWarning Status = "warning"
	StatusPending Status = "pending"
)

// IssueKind classifies a validation issue.
type IssueKind string

const (
	IssueRequired IssueKind = "required"
	IssueFormat   IssueKind = "format"
	IssueDate     IssueKind = "date"
	IssueOrdering IssueKind = "ordering"
)

// Issue is a single validation error or warning attributed to one field.
type Issue struct {
	Field   FieldKey  `json:"field"`
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	return i.Message
}

// Record is one device row. Field order is the export key order.
type Record struct {
	ID                string  `json:"id"`
	DeviceIdentifier  string  `json:"deviceIdentifier"`
	ManufacturerName  string  `json:"manufacturerName"`
	ProductName       string  `json:"productName"`
	ModelNumber       string  `json:"modelNumber"`
	LotNumber         string  `json:"lotNumber"`
	SerialNumber      string  `json:"serialNumber"`
	ProductionDate    string  `json:"productionDate"`
	ExpirationDate    string  `json:"expirationDate"`
	SingleUse         bool    `json:"singleUse"`
	Sterilized        bool    `json:"sterilized"`
	ContainsLatex     bool    `json:"containsLatex"`
	ContainsPhthalate bool    `json:"containsPhthalate"`
	Status            Status  `json:"status"`
	Errors            []Issue `json:"errors"`
	Warnings          []Issue `json:"warnings"`
	IsLocked          bool    `json:"isLocked"`
}

// clone returns a copy that shares no slices with r.
func (r Record) clone() Record {
	if r.Errors != nil {
		r.Errors = append([]Issue{}, r.Errors...)
	}
	if r.Warnings != nil {
		r.Warnings = append([]Issue{}, r.Warnings...)
	}
	return r
}

// cloneRecords copies a collection so callers cannot alias store state.
func cloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.clone()
	}
	return out
}

// Column describes one grid column. The table in columns.go is the only
// source of column types; call sites dispatch on Type, never on the key.
type Column struct {
	Key      FieldKey  `json:"key"`
	Label    string    `json:"label"`
	Editable bool      `json:"editable"`
	Required bool      `json:"required"`
	Type     FieldType `json:"type"`
	Frozen   bool      `json:"frozen"`
	Width    string    `json:"width"`
}

// FilterOperation is the comparison applied by a FilterOption.
type FilterOperation string

const (
	OpContains   FilterOperation = "contains"
	OpEquals     FilterOperation = "equals"
	OpStartsWith FilterOperation = "startsWith"
	OpEndsWith   FilterOperation = "endsWith"
)

// FilterOption is a single column predicate. Multiple options combine with AND.
type FilterOption struct {
	Column    FieldKey        `json:"column"`
	Operation FilterOperation `json:"operation"`
	Value     string          `json:"value"`
}

// Summary counts records by status. Pending records only count toward
// Total and Pending.
type Summary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Warning int `json:"warning"`
	Invalid int `json:"invalid"`
	Pending int `json:"pending"`
}

// Summarize counts the records in rs by status.
func Summarize(rs []Record) Summary {
	s := Summary{Total: len(rs)}
	for _, r := range rs {
		switch r.Status {
		case StatusValid:
			s.Valid++
		case StatusWarning:
			s.Warning++
		case StatusInvalid:
			s.Invalid++
		default:
			s.Pending++
		}
	}
	return s
}

// Source describes one ingest request: an uploaded file or a demo batch.
type Source struct {
	Name string
	Size int64
	Data []byte
	Demo bool
}

// DemoSourceName is the history file name used for generated demo batches.
const DemoSourceName = "Demo Data.csv"

// ValidatedBatch is the output of an ingest: validated records plus counts.
type ValidatedBatch struct {
	SourceName   string       `json:"sourceName"`
	Records      []Record     `json:"records"`
	ParseErrors  []ParseError `json:"parseErrors,omitempty"`
	InvalidCount int          `json:"invalidCount"`
	WarningCount int          `json:"warningCount"`
}

// IngestPhase indicates the state of the most recent ingest request.
type IngestPhase string

const (
	PhaseIdle       IngestPhase = "idle"
	PhaseProcessing IngestPhase = "processing"
	PhaseComplete   IngestPhase = "complete"
	PhaseFailed     IngestPhase = "failed"
	PhaseSuperseded IngestPhase = "superseded"
)

// IngestStatus reports the state of the latest ingest request.
type IngestStatus struct {
	RequestID   uint64        `json:"requestId"`
	Phase       IngestPhase   `json:"phase"`
	SourceName  string        `json:"sourceName,omitempty"`
	RecordCount int           `json:"recordCount"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"durationNs"`
}

// HistoryPort reads and writes the serialized history blob.
// Load returns (nil, nil) when nothing has been stored yet.
type HistoryPort interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Event is published after every session change.
type Event struct {
	Type   string `json:"type"`
	ID     any    `json:"id,omitempty"`
	Action string `json:"action"`
}

// Notifier receives session change events.
type Notifier interface {
	Publish(Event)
}

// Observer receives operational measurements from the session.
type Observer interface {
	ObserveValidation(s Summary)
	ObserveIngest(outcome IngestPhase, records int, d time.Duration)
	ObserveBulkEdit(updated, skipped int)
	ObserveEdit(action string)
}

type nopNotifier struct{}

func (nopNotifier) Publish(Event) {}

type nopObserver struct{}

func (nopObserver) ObserveValidation(Summary)                    {}
func (nopObserver) ObserveIngest(IngestPhase, int, time.Duration) {}
func (nopObserver) ObserveBulkEdit(int, int)                     {}
func (nopObserver) ObserveEdit(string)                           {}
