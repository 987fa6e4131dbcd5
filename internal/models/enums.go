package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
)

// TaskStatus is the workflow state of a task. Every state is reachable from
// every other one; COMPLETED can be reopened.
type TaskStatus uint8

const (
	StatusTodo TaskStatus = iota + 1
	StatusInProgress
	StatusCompleted
)

// TaskStatuses lists the valid statuses in ascending order.
var TaskStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusCompleted}

func (s TaskStatus) Valid() bool {
	return s >= StatusTodo && s <= StatusCompleted
}

// Label is the display name shown to users.
func (s TaskStatus) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	}
	return "Unknown"
}

func (s TaskStatus) String() string {
	return s.Label()
}

// ParseTaskStatus converts a raw integer into a status.
func ParseTaskStatus(v int) (TaskStatus, error) {
	s := TaskStatus(v)
	if v < 0 || v > 255 || !s.Valid() {
		return 0, fmt.Errorf("invalid task status %d", v)
	}
	return s, nil
}

func (s TaskStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *TaskStatus) Scan(src any) error {
	v, err := scanEnumInt(src)
	if err != nil {
		return fmt.Errorf("scan task status: %w", err)
	}
	parsed, err := ParseTaskStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// TaskPriority ranks tasks; a higher value is more urgent.
type TaskPriority uint8

const (
	PriorityLow TaskPriority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

// TaskPriorities lists the valid priorities in ascending order.
var TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p TaskPriority) Valid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

func (p TaskPriority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	}
	return "Unknown"
}

func (p TaskPriority) String() string {
	return p.Label()
}

// ParseTaskPriority converts a raw integer into a priority.
func ParseTaskPriority(v int) (TaskPriority, error) {
	p := TaskPriority(v)
	if v < 0 || v > 255 || !p.Valid() {
		return 0, fmt.Errorf("invalid task priority %d", v)
	}
	return p, nil
}

func (p TaskPriority) Value() (driver.Value, error) {
	return int64(p), nil
}

func (p *TaskPriority) Scan(src any) error {
	v, err := scanEnumInt(src)
	if err != nil {
		return fmt.Errorf("scan task priority: %w", err)
	}
	parsed, err := ParseTaskPriority(v)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func scanEnumInt(src any) (int, error) {
	switch v := src.(type) {
	case int64:
		return int(v), nil
	case int32:
		return int(v), nil
	case int:
		return v, nil
	case []byte:
		return strconv.Atoi(string(v))
	case string:
		return strconv.Atoi(v)
	case nil:
		return 0, fmt.Errorf("unexpected NULL")
	}
	return 0, fmt.Errorf("unsupported type %T", src)
}

// EnumOption is a value/label pair for select inputs.
type EnumOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

func StatusOptions() []EnumOption {
	out := make([]EnumOption, 0, len(TaskStatuses))
	for _, s := range TaskStatuses {
		out = append(out, EnumOption{Value: int(s), Label: s.Label()})
	}
	return out
}

func PriorityOptions() []EnumOption {
	out := make([]EnumOption, 0, len(TaskPriorities))
	for _, p := range TaskPriorities {
		out = append(out, EnumOption{Value: int(p), Label: p.Label()})
	}
	return out
}
