package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pty0735/routinely/internal"
)

// PostgresStorage implements every repository on one pgx pool.
//
// Expected schema:
//
//	users    (id text pk, email text, name text, age int, created_at timestamptz)
//	goals    (id text pk, user_id text, category text, description text,
//	          target_date date, created_at timestamptz)
//	routines (id text pk, goal_id text references goals, date date,
//	          activity text, estimated_duration int)
//	progress (routine_id text pk references routines, status text,
//	          actual_time_spent int null, feedback text null,
//	          completed_at timestamptz null)
type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- UserRepository ---

func (p *PostgresStorage) GetUser(ctx context.Context, userID string) (*internal.User, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, email, name, age, created_at FROM users WHERE id = $1`, userID)
	var u internal.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Age, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		p.logger.Errorf("failed to query user %s: %v", userID, err)
		return nil, err
	}
	return &u, nil
}

// --- GoalRepository ---

func (p *PostgresStorage) CreateGoalPlan(ctx context.Context, goal *internal.Goal, routines []internal.Routine, progress []internal.Progress) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: begin goal plan tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO goals (id, user_id, category, description, target_date, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		goal.ID, goal.UserID, goal.Category, goal.Description, goal.TargetDate.Time(), goal.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert goal %s: %v", goal.ID, err)
		return err
	}

	for i, r := range routines {
		_, err = tx.Exec(ctx,
			`INSERT INTO routines (id, goal_id, date, activity, estimated_duration) VALUES ($1, $2, $3, $4, $5)`,
			r.ID, r.GoalID, r.Date.Time(), r.Activity, r.EstimatedDuration)
		if err != nil {
			p.logger.Errorf("failed to insert routine day %d for goal %s: %v", i+1, goal.ID, err)
			return err
		}
		pr := progress[i]
		_, err = tx.Exec(ctx,
			`INSERT INTO progress (routine_id, status, actual_time_spent, feedback, completed_at) VALUES ($1, $2, $3, $4, $5)`,
			pr.RoutineID, pr.Status, pr.ActualTimeSpent, pr.Feedback, pr.CompletedAt)
		if err != nil {
			p.logger.Errorf("failed to insert progress day %d for goal %s: %v", i+1, goal.ID, err)
			return err
		}
	}

	return tx.Commit(ctx)
}

func (p *PostgresStorage) GetGoal(ctx context.Context, userID, goalID string) (*internal.Goal, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, user_id, category, description, target_date, created_at FROM goals WHERE id = $1 AND user_id = $2`,
		goalID, userID)
	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		p.logger.Errorf("failed to query goal %s: %v", goalID, err)
		return nil, err
	}
	return g, nil
}

func (p *PostgresStorage) ListGoalSummaries(ctx context.Context, userID string, today internal.Date) ([]internal.GoalSummary, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT g.id, g.user_id, g.category, g.description, g.target_date, g.created_at,
			COUNT(r.id) AS total_routines,
			COUNT(CASE WHEN p.status = 'completed' THEN 1 END) AS completed_routines,
			COUNT(CASE WHEN p.status = 'failed' THEN 1 END) AS failed_routines,
			COUNT(CASE WHEN r.date < $2 AND p.status != 'completed' AND p.status != 'failed' THEN 1 END) AS auto_failed_routines,
			COUNT(CASE WHEN p.status = 'in_progress' THEN 1 END) AS in_progress_routines
		FROM goals g
		LEFT JOIN routines r ON g.id = r.goal_id
		LEFT JOIN progress p ON r.id = p.routine_id
		WHERE g.user_id = $1
		GROUP BY g.id
		ORDER BY g.created_at DESC`,
		userID, today.Time())
	if err != nil {
		p.logger.Errorf("failed to query goal summaries: %v", err)
		return nil, err
	}
	defer rows.Close()

	var summaries []internal.GoalSummary
	for rows.Next() {
		var s internal.GoalSummary
		var targetDate, createdAt time.Time
		err := rows.Scan(&s.ID, &s.UserID, &s.Category, &s.Description, &targetDate, &createdAt,
			&s.Counts.Total, &s.Counts.Completed, &s.Counts.Failed, &s.Counts.AutoFailed, &s.Counts.InProgress)
		if err != nil {
			p.logger.Errorf("failed to scan goal summary: %v", err)
			return nil, err
		}
		s.TargetDate = internal.DateOf(targetDate)
		s.CreatedAt = createdAt
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (p *PostgresStorage) DeleteGoal(ctx context.Context, goalID string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: begin goal delete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Dependents first: progress, routines, then the goal row.
	_, err = tx.Exec(ctx,
		`DELETE FROM progress WHERE routine_id IN (SELECT id FROM routines WHERE goal_id = $1)`, goalID)
	if err != nil {
		p.logger.Errorf("failed to delete progress for goal %s: %v", goalID, err)
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM routines WHERE goal_id = $1`, goalID); err != nil {
		p.logger.Errorf("failed to delete routines for goal %s: %v", goalID, err)
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM goals WHERE id = $1`, goalID); err != nil {
		p.logger.Errorf("failed to delete goal %s: %v", goalID, err)
		return err
	}
	return tx.Commit(ctx)
}

// --- RoutineRepository ---

func (p *PostgresStorage) ListRoutines(ctx context.Context, goalID string) ([]internal.RoutineWithProgress, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT r.id, r.goal_id, r.date, r.activity, r.estimated_duration,
			p.status, p.actual_time_spent, p.feedback, p.completed_at
		FROM routines r
		LEFT JOIN progress p ON r.id = p.routine_id
		WHERE r.goal_id = $1
		ORDER BY r.date ASC`,
		goalID)
	if err != nil {
		p.logger.Errorf("failed to query routines for goal %s: %v", goalID, err)
		return nil, err
	}
	defer rows.Close()

	var result []internal.RoutineWithProgress
	for rows.Next() {
		var rp internal.RoutineWithProgress
		var date time.Time
		var status *internal.ProgressStatus
		err := rows.Scan(&rp.ID, &rp.GoalID, &date, &rp.Activity, &rp.EstimatedDuration,
			&status, &rp.Progress.ActualTimeSpent, &rp.Progress.Feedback, &rp.Progress.CompletedAt)
		if err != nil {
			p.logger.Errorf("failed to scan routine: %v", err)
			return nil, err
		}
		rp.Date = internal.DateOf(date)
		rp.Progress.RoutineID = rp.ID
		rp.Progress.Status = internal.DefaultProgressStatus
		if status != nil {
			rp.Progress.Status = *status
		}
		result = append(result, rp)
	}
	return result, rows.Err()
}

func (p *PostgresStorage) GetRoutineOwned(ctx context.Context, userID, routineID string) (*internal.Routine, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT r.id, r.goal_id, r.date, r.activity, r.estimated_duration
		FROM routines r
		JOIN goals g ON r.goal_id = g.id
		WHERE r.id = $1 AND g.user_id = $2`,
		routineID, userID)
	var r internal.Routine
	var date time.Time
	if err := row.Scan(&r.ID, &r.GoalID, &date, &r.Activity, &r.EstimatedDuration); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		p.logger.Errorf("failed to query routine %s: %v", routineID, err)
		return nil, err
	}
	r.Date = internal.DateOf(date)
	return &r, nil
}

func (p *PostgresStorage) ReplaceRoutines(ctx context.Context, goalID string, routines []internal.Routine, progress []internal.Progress) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: begin routine replace tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM progress WHERE routine_id IN (SELECT id FROM routines WHERE goal_id = $1)`, goalID)
	if err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM routines WHERE goal_id = $1`, goalID); err != nil {
		return err
	}

	for i, r := range routines {
		_, err = tx.Exec(ctx,
			`INSERT INTO routines (id, goal_id, date, activity, estimated_duration) VALUES ($1, $2, $3, $4, $5)`,
			r.ID, r.GoalID, r.Date.Time(), r.Activity, r.EstimatedDuration)
		if err != nil {
			return err
		}
		pr := progress[i]
		_, err = tx.Exec(ctx,
			`INSERT INTO progress (routine_id, status, actual_time_spent, feedback, completed_at) VALUES ($1, $2, $3, $4, $5)`,
			pr.RoutineID, pr.Status, pr.ActualTimeSpent, pr.Feedback, pr.CompletedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (p *PostgresStorage) UpdateProgress(ctx context.Context, routineID string, upd internal.ProgressUpdate) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE progress SET status = $1, actual_time_spent = $2, feedback = $3, completed_at = $4 WHERE routine_id = $5`,
		upd.Status, upd.ActualTimeSpent, upd.Feedback, upd.CompletedAt, routineID)
	if err != nil {
		p.logger.Errorf("failed to update progress for routine %s: %v", routineID, err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteRoutine(ctx context.Context, routineID string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: begin routine delete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `DELETE FROM progress WHERE routine_id = $1`, routineID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM routines WHERE id = $1`, routineID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanGoal(row pgx.Row) (*internal.Goal, error) {
	var g internal.Goal
	var targetDate, createdAt time.Time
	if err := row.Scan(&g.ID, &g.UserID, &g.Category, &g.Description, &targetDate, &createdAt); err != nil {
		return nil, err
	}
	g.TargetDate = internal.DateOf(targetDate)
	g.CreatedAt = createdAt
	return &g, nil
}

// --- Compile-time assertions ---
var _ UserRepository = (*PostgresStorage)(nil)
var _ GoalRepository = (*PostgresStorage)(nil)
var _ RoutineRepository = (*PostgresStorage)(nil)
