package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pty0735/routinely/internal"
	"github.com/pty0735/routinely/internal/storage"
)

type UpdateProgressRequest struct {
	Status          string  `json:"status" validate:"required,oneof=not_started in_progress completed failed"`
	ActualTimeSpent *int    `json:"actual_time_spent" validate:"omitempty,gte=0"`
	Feedback        *string `json:"feedback"`
}

// UpdateRoutineProgress records the day's outcome. Ownership is checked
// before any write, and only a routine whose display status is "today"
// accepts the update. completed_at is set when the status becomes
// completed and cleared otherwise. Idempotent single-row write.
func UpdateRoutineProgress(ctx context.Context, d Deps, user *internal.User, routineID string, req *UpdateProgressRequest) error {
	if err := validate.Struct(req); err != nil {
		return internal.NewValidationError("status must be one of not_started, in_progress, completed, failed", err)
	}

	routine, err := d.Routines.GetRoutineOwned(ctx, user.ID, routineID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return internal.NewNotFoundError("routine not found")
		}
		return internal.NewPersistenceError("failed to load routine", err)
	}

	today := d.Clock.Today()
	if display := ResolveRoutineStatus(routine.Date, today, internal.ProgressStatus(req.Status)); display != internal.DisplayToday {
		return internal.NewValidationError("only today's routine can be updated", nil)
	}

	upd := internal.ProgressUpdate{
		Status:          internal.ProgressStatus(req.Status),
		ActualTimeSpent: req.ActualTimeSpent,
		Feedback:        req.Feedback,
	}
	if upd.Status == internal.StatusCompleted {
		now := time.Now()
		upd.CompletedAt = &now
	}

	if err := d.Routines.UpdateProgress(ctx, routineID, upd); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return internal.NewNotFoundError("routine not found")
		}
		return internal.NewPersistenceError("failed to update progress", err)
	}
	d.Log.Infof("routine %s (date %s): progress set to %s", routineID, routine.Date, upd.Status)
	return nil
}

// DeleteRoutine removes one routine and its progress row, dependents first.
func DeleteRoutine(ctx context.Context, d Deps, user *internal.User, routineID string) error {
	if _, err := d.Routines.GetRoutineOwned(ctx, user.ID, routineID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return internal.NewNotFoundError("routine not found")
		}
		return internal.NewPersistenceError("failed to load routine", err)
	}
	if err := d.Routines.DeleteRoutine(ctx, routineID); err != nil {
		return internal.NewPersistenceError("failed to delete routine", err)
	}
	return nil
}

type RoutineInput struct {
	Date              string `json:"date" validate:"required"`
	Activity          string `json:"activity" validate:"required"`
	EstimatedDuration int    `json:"estimated_duration" validate:"gte=0"`
}

type ReplaceRoutinesRequest struct {
	Routines []RoutineInput `json:"routines" validate:"required,min=1,dive"`
}

// ReplaceRoutines swaps a goal's plan for a caller-supplied one: existing
// routines and their progress go away, the new set comes in with default
// progress. Used to regenerate a plan by hand.
func ReplaceRoutines(ctx context.Context, d Deps, user *internal.User, goalID string, req *ReplaceRoutinesRequest) (int, error) {
	if err := validate.Struct(req); err != nil {
		return 0, internal.NewValidationError("routines with date and activity are required", err)
	}
	if _, err := d.Goals.GetGoal(ctx, user.ID, goalID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, internal.NewNotFoundError("goal not found")
		}
		return 0, internal.NewPersistenceError("failed to load goal", err)
	}

	routines := make([]internal.Routine, 0, len(req.Routines))
	progress := make([]internal.Progress, 0, len(req.Routines))
	for _, in := range req.Routines {
		date, err := internal.ParseDate(in.Date)
		if err != nil {
			return 0, internal.NewValidationError("routine dates must be YYYY-MM-DD", err)
		}
		id := uuid.NewString()
		routines = append(routines, internal.Routine{
			ID:                id,
			GoalID:            goalID,
			Date:              date,
			Activity:          in.Activity,
			EstimatedDuration: in.EstimatedDuration,
		})
		progress = append(progress, internal.Progress{
			RoutineID: id,
			Status:    internal.DefaultProgressStatus,
		})
	}

	if err := d.Routines.ReplaceRoutines(ctx, goalID, routines, progress); err != nil {
		return 0, internal.NewPersistenceError("failed to replace routines", err)
	}
	d.Log.Infof("goal %s: replaced plan with %d routines", goalID, len(routines))
	return len(routines), nil
}

// GetProfile returns the stored user record for the authenticated caller.
func GetProfile(ctx context.Context, d Deps, user *internal.User) (*internal.User, error) {
	u, err := d.Users.GetUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, internal.NewNotFoundError("user not found")
		}
		return nil, internal.NewPersistenceError("failed to load user", err)
	}
	return u, nil
}
