package queries

import (
	"energy-dashboard/application/views"
	"energy-dashboard/domain/energy"
	apperrors "energy-dashboard/pkg/errors"
	"energy-dashboard/pkg/utils"
)

// Client-facing validation messages.
const (
	MsgInvalidRange   = "Invalid start/end: must be numeric (ms) with start < end"
	MsgInvalidHistory = "Invalid start/end: must be YYYY-MM-DD with start <= end"
	MsgInvalidCount   = "Invalid count parameter"
	MsgInvalidCursor  = "Invalid cursor"
)

// GetEnergySeriesQuery asks for the newest points, oldest first
type GetEnergySeriesQuery struct {
	Points int `json:"points" validate:"min=1,max=500"`
}

// Validate validates the query
func (q GetEnergySeriesQuery) Validate() error {
	return validationError(MsgInvalidCount, utils.ValidateStruct(q))
}

// GetEnergySeriesResult is the chart series
type GetEnergySeriesResult struct {
	Items []views.TimeSeriesPoint `json:"items"`
}

// GetLatestRecordQuery asks for the newest normalized record
type GetLatestRecordQuery struct{}

// Validate validates the query
func (q GetLatestRecordQuery) Validate() error { return nil }

// GetLatestRecordResult holds the newest record, nil when there is none
type GetLatestRecordResult struct {
	Item *energy.Record `json:"item"`
}

// GetKpiSnapshotQuery asks for the headline figures of the newest record
type GetKpiSnapshotQuery struct{}

// Validate validates the query
func (q GetKpiSnapshotQuery) Validate() error { return nil }

// GetRangeQuery asks for every record between two epoch ms bounds.
// Cursor resumes a read that stopped at the range cap.
type GetRangeQuery struct {
	Start  int64  `json:"start" validate:"gte=0"`
	End    int64  `json:"end" validate:"gtfield=Start"`
	Cursor string `json:"cursor,omitempty"`
}

// Validate validates the query
func (q GetRangeQuery) Validate() error {
	return validationError(MsgInvalidRange, utils.ValidateStruct(q))
}

// GetHistoryQuery asks for one page of records inside a UTC day range
type GetHistoryQuery struct {
	Start  string `json:"start" validate:"required,datetime=2006-01-02"`
	End    string `json:"end" validate:"required,datetime=2006-01-02"`
	Limit  int    `json:"limit" validate:"min=1,max=500"`
	Cursor string `json:"cursor,omitempty"`
}

// Validate validates the query
func (q GetHistoryQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return validationError(MsgInvalidHistory, err)
	}
	_, err := q.Days()
	return validationError(MsgInvalidHistory, err)
}

// Days parses the day range
func (q GetHistoryQuery) Days() (energy.DayRange, error) {
	return energy.ParseDayRange(q.Start, q.End)
}

// RecordPageResult is one page of normalized records
type RecordPageResult struct {
	Items   []energy.Record `json:"items"`
	LastKey string          `json:"lastKey,omitempty"`
}

// GetRawItemsQuery asks for the newest items as stored
type GetRawItemsQuery struct {
	Limit int `json:"limit" validate:"min=1,max=500"`
}

// Validate validates the query
func (q GetRawItemsQuery) Validate() error {
	return validationError(MsgInvalidCount, utils.ValidateStruct(q))
}

// GetRawItemsResult describes the newest stored item
type GetRawItemsResult struct {
	ItemCount   int            `json:"itemCount"`
	RawItem     map[string]any `json:"rawItem"`
	PayloadKeys []string       `json:"payloadKeys"`
	Strategy    string         `json:"strategy,omitempty"`
}

// SyntheticRawResult is returned for raw reads while serving generated data
type SyntheticRawResult struct {
	Mode string `json:"mode"`
	Raw  any    `json:"raw"`
}

func validationError(message string, err error) error {
	if err == nil {
		return nil
	}
	return apperrors.NewValidationError(message).WithCause(err)
}
