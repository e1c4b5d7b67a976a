// Package dto defines data transfer objects for the tasks feature's HTTP transport layer.
package dto

// CreateTaskReq is the body of POST /tasks. The owner always comes from the session.
type CreateTaskReq struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// UpdateTaskReq is the body of PATCH /tasks/:id. Absent fields stay nil.
type UpdateTaskReq struct {
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// UpdatableTaskFields lists the keys UpdateTaskReq accepts.
var UpdatableTaskFields = []string{"description", "completed"}

// ListTasksParams holds the query parameters of GET /tasks. Absent parameters stay nil.
type ListTasksParams struct {
	Completed *string
	Limit     *int
	Skip      *int
	SortBy    *string
}
