package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pty0735/routinely/internal"
	"github.com/pty0735/routinely/internal/clock"
	"github.com/pty0735/routinely/internal/plan"
	"github.com/pty0735/routinely/internal/storage"
)

var validate = validator.New()

// Deps carries the collaborators the goal pipeline consumes.
type Deps struct {
	Goals    storage.GoalRepository
	Routines storage.RoutineRepository
	Users    storage.UserRepository
	Gen      plan.Generator
	Clock    clock.Clock
	Log      internal.Logger
}

type CreateGoalRequest struct {
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"required"`
	TargetDate  string `json:"target_date" validate:"required"`
}

type CreateGoalResult struct {
	GoalID          string `json:"goal_id"`
	Plan            string `json:"plan"`
	RoutinesCreated int    `json:"routines_created"`
	TotalDays       int    `json:"total_days"`
}

// CreateGoal runs the full pipeline: span from today, generate the plan,
// parse it into dated routines, persist goal + routines + default progress
// as one unit. A generation or persistence failure leaves no partial rows.
func CreateGoal(ctx context.Context, d Deps, user *internal.User, req *CreateGoalRequest) (*CreateGoalResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, internal.NewValidationError("category, description and target_date are required", err)
	}
	targetDate, err := internal.ParseDate(req.TargetDate)
	if err != nil {
		return nil, internal.NewValidationError("target_date must be YYYY-MM-DD", err)
	}

	today := d.Clock.Today()
	totalDays := plan.TotalDays(today, targetDate)

	owner, err := d.Users.GetUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, internal.NewNotFoundError("user not found")
		}
		return nil, internal.NewPersistenceError("failed to load user", err)
	}

	goal := &internal.Goal{
		ID:          uuid.NewString(),
		UserID:      owner.ID,
		Category:    req.Category,
		Description: req.Description,
		TargetDate:  targetDate,
		CreatedAt:   time.Now(),
	}

	planText, err := d.Gen.GeneratePlan(ctx, plan.PlanRequest{
		Description: goal.Description,
		Category:    goal.Category,
		TargetDate:  targetDate,
		Age:         owner.Age,
		TotalDays:   totalDays,
	})
	if err != nil {
		d.Log.Errorf("goal %s: plan generation failed: %v", goal.ID, err)
		return nil, internal.NewUpstreamError("failed to generate a routine plan", err)
	}

	routines := plan.ParseDailyRoutines(planText, goal.ID, today, targetDate, d.Log)
	progress := make([]internal.Progress, len(routines))
	for i := range routines {
		routines[i].ID = uuid.NewString()
		progress[i] = internal.Progress{
			RoutineID: routines[i].ID,
			Status:    internal.DefaultProgressStatus,
		}
	}

	if err := d.Goals.CreateGoalPlan(ctx, goal, routines, progress); err != nil {
		d.Log.Errorf("goal %s: persistence failed: %v", goal.ID, err)
		return nil, internal.NewPersistenceError("failed to save the goal plan", err)
	}

	d.Log.Infof("goal %s: created %d routines over %d days", goal.ID, len(routines), totalDays)
	return &CreateGoalResult{
		GoalID:          goal.ID,
		Plan:            planText,
		RoutinesCreated: len(routines),
		TotalDays:       totalDays,
	}, nil
}

// CategorizedGoals groups a user's goals by their computed status.
type CategorizedGoals struct {
	InProgress []internal.GoalSummary `json:"inProgress"`
	Completed  []internal.GoalSummary `json:"completed"`
	Failed     []internal.GoalSummary `json:"failed"`
}

// ListGoals aggregates routine counts per goal and labels each one. The
// counts are computed against clock.Today, never stored.
func ListGoals(ctx context.Context, d Deps, user *internal.User) (*CategorizedGoals, error) {
	summaries, err := d.Goals.ListGoalSummaries(ctx, user.ID, d.Clock.Today())
	if err != nil {
		return nil, internal.NewPersistenceError("failed to load goals", err)
	}

	out := &CategorizedGoals{
		InProgress: []internal.GoalSummary{},
		Completed:  []internal.GoalSummary{},
		Failed:     []internal.GoalSummary{},
	}
	for _, s := range summaries {
		switch ClassifyGoal(s.Counts) {
		case internal.GoalCompleted:
			out.Completed = append(out.Completed, s)
		case internal.GoalFailed:
			out.Failed = append(out.Failed, s)
		default:
			out.InProgress = append(out.InProgress, s)
		}
	}
	return out, nil
}

// Filtered returns one group by its API status label, or nil for an
// unknown label.
func (c *CategorizedGoals) Filtered(status string) []internal.GoalSummary {
	switch status {
	case string(internal.GoalInProgress):
		return c.InProgress
	case string(internal.GoalCompleted):
		return c.Completed
	case string(internal.GoalFailed):
		return c.Failed
	default:
		return nil
	}
}

// RoutineView is a routine annotated with its computed display status.
type RoutineView struct {
	internal.RoutineWithProgress
	RoutineStatus internal.RoutineDisplay `json:"routine_status"`
}

type GoalDetail struct {
	Goal     *internal.Goal `json:"goal"`
	Routines []RoutineView  `json:"routines"`
}

// GetGoalDetail returns the goal and its routines sorted by date, each
// annotated with the resolver output for today.
func GetGoalDetail(ctx context.Context, d Deps, user *internal.User, goalID string) (*GoalDetail, error) {
	goal, err := d.Goals.GetGoal(ctx, user.ID, goalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, internal.NewNotFoundError("goal not found")
		}
		return nil, internal.NewPersistenceError("failed to load goal", err)
	}

	routines, err := d.Routines.ListRoutines(ctx, goal.ID)
	if err != nil {
		return nil, internal.NewPersistenceError("failed to load routines", err)
	}

	today := d.Clock.Today()
	views := make([]RoutineView, 0, len(routines))
	for _, rp := range routines {
		views = append(views, RoutineView{
			RoutineWithProgress: rp,
			RoutineStatus:       ResolveRoutineStatus(rp.Date, today, rp.Progress.Status),
		})
	}

	return &GoalDetail{Goal: goal, Routines: views}, nil
}

// DeleteGoal removes a goal and everything hanging off it, dependents
// first. Ownership is checked before any mutation.
func DeleteGoal(ctx context.Context, d Deps, user *internal.User, goalID string) error {
	if _, err := d.Goals.GetGoal(ctx, user.ID, goalID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return internal.NewNotFoundError("goal not found")
		}
		return internal.NewPersistenceError("failed to load goal", err)
	}
	if err := d.Goals.DeleteGoal(ctx, goalID); err != nil {
		return internal.NewPersistenceError("failed to delete goal", err)
	}
	d.Log.Infof("goal %s: deleted", goalID)
	return nil
}
