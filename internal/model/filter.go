package model

import "strings"

type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusCompleted StatusFilter = "completed"
	StatusPending   StatusFilter = "pending"
)

// ParseStatusFilter is case-insensitive; unrecognised values select all tasks.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case StatusCompleted:
		return StatusCompleted
	case StatusPending:
		return StatusPending
	default:
		return StatusAll
	}
}

type TaskFilter struct {
	Status StatusFilter
	Search string
}

// NewTaskFilter keeps search verbatim; whitespace in it is significant and only "" disables it.
func NewTaskFilter(status, search string) TaskFilter {
	return TaskFilter{
		Status: ParseStatusFilter(status),
		Search: search,
	}
}

// Matches applies the filter to a single task. Search is a case-insensitive
// substring match against the title or the description.
func (f TaskFilter) Matches(t *Task) bool {
	switch f.Status {
	case StatusCompleted:
		if !t.IsCompleted {
			return false
		}
	case StatusPending:
		if t.IsCompleted {
			return false
		}
	}

	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(t.Title), needle) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), needle)
}
