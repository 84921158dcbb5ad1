package storage

import (
	"context"
	"errors"

	"github.com/pty0735/routinely/internal"
)

// ErrNotFound is returned when a row does not exist or does not belong to
// the requesting user. The service layer maps it to a not-found response.
var ErrNotFound = errors.New("storage: not found")

type UserRepository interface {
	GetUser(ctx context.Context, userID string) (*internal.User, error)
}

type GoalRepository interface {
	// CreateGoalPlan persists the goal together with its routines and
	// their initial progress rows as one all-or-nothing operation.
	CreateGoalPlan(ctx context.Context, goal *internal.Goal, routines []internal.Routine, progress []internal.Progress) error
	GetGoal(ctx context.Context, userID, goalID string) (*internal.Goal, error)
	// ListGoalSummaries returns every goal of the user with routine counts
	// aggregated relative to today (the auto-failed projection).
	ListGoalSummaries(ctx context.Context, userID string, today internal.Date) ([]internal.GoalSummary, error)
	// DeleteGoal cascade-deletes progress rows, then routines, then the goal.
	DeleteGoal(ctx context.Context, goalID string) error
}

type RoutineRepository interface {
	ListRoutines(ctx context.Context, goalID string) ([]internal.RoutineWithProgress, error)
	// GetRoutineOwned resolves a routine only when its goal belongs to userID.
	GetRoutineOwned(ctx context.Context, userID, routineID string) (*internal.Routine, error)
	// ReplaceRoutines drops the goal's routines (and their progress) and
	// inserts the given set with fresh progress rows, atomically.
	ReplaceRoutines(ctx context.Context, goalID string, routines []internal.Routine, progress []internal.Progress) error
	UpdateProgress(ctx context.Context, routineID string, upd internal.ProgressUpdate) error
	// DeleteRoutine removes the progress row first, then the routine.
	DeleteRoutine(ctx context.Context, routineID string) error
}
