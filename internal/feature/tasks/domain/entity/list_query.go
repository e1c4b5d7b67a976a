package entity

// MaxPageSize caps how many tasks a single list call returns.
const MaxPageSize = 100

// SortField is a task attribute the list can be ordered by.
type SortField string

const (
	SortCreatedAt   SortField = "createdAt"
	SortUpdatedAt   SortField = "updatedAt"
	SortDescription SortField = "description"
	SortCompleted   SortField = "completed"
)

// SortFields lists every field accepted by sortBy.
var SortFields = []SortField{SortCreatedAt, SortUpdatedAt, SortDescription, SortCompleted}

// Column returns the relational column name for the field.
func (f SortField) Column() string {
	switch f {
	case SortUpdatedAt:
		return "updated_at"
	case SortDescription:
		return "description"
	case SortCompleted:
		return "completed"
	default:
		return "created_at"
	}
}

// ListQuery selects a page of one owner's tasks.
type ListQuery struct {
	// Completed filters by completion state when non-nil.
	Completed *bool
	// Limit is the page size, between 1 and MaxPageSize.
	Limit int
	Skip  int
	// Sort is empty when the caller asked for no particular order.
	Sort SortField
	Desc bool
}
