package usecase

import (
	"strings"

	"task_backend/internal/feature/tasks/domain/entity"
	"task_backend/internal/shared/apperr"
)

// ListParams are the raw query parameters of a list call. Nil means absent.
type ListParams struct {
	Completed *string
	Limit     *int
	Skip      *int
	SortBy    *string
}

// BuildListQuery validates ListParams and turns them into a ListQuery.
//
// completed must be "true" or "false". limit and skip must not be negative;
// a missing or zero limit means MaxPageSize and larger values are clamped to it.
// sortBy is "field" or "field:asc|desc" with field one of entity.SortFields.
func BuildListQuery(p ListParams) (entity.ListQuery, error) {
	q := entity.ListQuery{Limit: entity.MaxPageSize}

	if p.Completed != nil {
		var completed bool
		switch strings.ToLower(*p.Completed) {
		case "true":
			completed = true
		case "false":
			completed = false
		default:
			return q, apperr.Validation("completed must be true or false")
		}
		q.Completed = &completed
	}

	if p.Limit != nil {
		switch {
		case *p.Limit < 0:
			return q, apperr.Validation("limit must not be negative")
		case *p.Limit > 0 && *p.Limit < entity.MaxPageSize:
			q.Limit = *p.Limit
		}
	}

	if p.Skip != nil {
		if *p.Skip < 0 {
			return q, apperr.Validation("skip must not be negative")
		}
		q.Skip = *p.Skip
	}

	if p.SortBy != nil && *p.SortBy != "" {
		field, dir, _ := strings.Cut(*p.SortBy, ":")
		sort, ok := parseSortField(field)
		if !ok {
			return q, apperr.Validationf("cannot sort by %q", field)
		}
		switch dir {
		case "", "asc":
		case "desc":
			q.Desc = true
		default:
			return q, apperr.Validationf("sort direction must be asc or desc, got %q", dir)
		}
		q.Sort = sort
	}

	return q, nil
}

func parseSortField(s string) (entity.SortField, bool) {
	for _, f := range entity.SortFields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}
