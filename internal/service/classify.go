package service

import "github.com/pty0735/routinely/internal"

// failedRoutineLimit is the absolute cap on missed/failed days: once a goal
// accumulates this many it is failed regardless of its total length.
const failedRoutineLimit = 4

// ClassifyGoal assigns a goal to exactly one status from its routine
// counts. Rule order matters and first match wins:
//
//  1. no routines yet -> in-progress
//  2. every routine completed -> completed
//  3. every routine failed or auto-failed, or at least failedRoutineLimit
//     of them -> failed (either condition alone suffices)
//  4. otherwise -> in-progress
func ClassifyGoal(c internal.RoutineCounts) internal.GoalStatus {
	totalFailed := c.Failed + c.AutoFailed

	switch {
	case c.Total == 0:
		return internal.GoalInProgress
	case c.Completed == c.Total:
		return internal.GoalCompleted
	case totalFailed == c.Total || totalFailed >= failedRoutineLimit:
		return internal.GoalFailed
	default:
		return internal.GoalInProgress
	}
}

// ResolveRoutineStatus computes the display state that gates interaction
// with a routine. Pure function; evaluated in order, first match wins.
// Only a routine resolving to "today" may accept a progress update.
func ResolveRoutineStatus(date, today internal.Date, status internal.ProgressStatus) internal.RoutineDisplay {
	switch {
	case date.Equal(today):
		return internal.DisplayToday
	case date.Before(today) && status == internal.StatusFailed:
		return internal.DisplayAutoFailed
	case date.After(today):
		return internal.DisplayFuture
	default:
		return internal.DisplayNormal
	}
}
