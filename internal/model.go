package internal

import "time"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"created_at"`
}

type Goal struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Category    string    `json:"category"` // exercise, study, life or free-form
	Description string    `json:"description"`
	TargetDate  Date      `json:"target_date"` // immutable after creation
	CreatedAt   time.Time `json:"created_at"`
}

type Routine struct {
	ID                string `json:"id"`
	GoalID            string `json:"goal_id"`
	Date              Date   `json:"date"`
	Activity          string `json:"activity"`
	EstimatedDuration int    `json:"estimated_duration"` // minutes
}

// ProgressStatus is the persisted per-day completion state.
type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "not_started"
	StatusInProgress ProgressStatus = "in_progress"
	StatusCompleted  ProgressStatus = "completed"
	StatusFailed     ProgressStatus = "failed"
)

// DefaultProgressStatus is the status a freshly created Progress row gets.
// An older variant of the app defaulted to not_started; only in_progress is
// supported now.
const DefaultProgressStatus = StatusInProgress

type Progress struct {
	RoutineID       string         `json:"routine_id"`
	Status          ProgressStatus `json:"status"`
	ActualTimeSpent *int           `json:"actual_time_spent,omitempty"` // minutes
	Feedback        *string        `json:"feedback,omitempty"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// GoalStatus is never stored; it is computed on read from routine counts.
type GoalStatus string

const (
	GoalInProgress GoalStatus = "in-progress"
	GoalCompleted  GoalStatus = "completed"
	GoalFailed     GoalStatus = "failed"
)

// RoutineDisplay is never stored; it is computed on read from the routine's
// date relative to today and its progress status.
type RoutineDisplay string

const (
	DisplayToday      RoutineDisplay = "today"
	DisplayFuture     RoutineDisplay = "future"
	DisplayAutoFailed RoutineDisplay = "auto_failed"
	DisplayNormal     RoutineDisplay = "normal"
)

// RoutineCounts aggregates a goal's routines relative to a given day.
// AutoFailed counts routines whose date has passed without an explicit
// completed or failed status ever being recorded.
type RoutineCounts struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	AutoFailed int `json:"auto_failed"`
	InProgress int `json:"in_progress"`
}

type GoalSummary struct {
	Goal
	Counts RoutineCounts `json:"counts"`
}

type RoutineWithProgress struct {
	Routine
	Progress Progress `json:"progress"`
}

// ProgressUpdate carries the mutable fields of a Progress row. The row is
// overwritten field by field; concurrent writers are not ordered, last
// write wins.
type ProgressUpdate struct {
	Status          ProgressStatus
	ActualTimeSpent *int
	Feedback        *string
	CompletedAt     *time.Time
}
