package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pty0735/routinely/internal"
)

// FileStorage keeps everything in memory and persists to JSON files with
// debounced background writers. Good enough for development and tests; the
// postgres backend is the production path.
type FileStorage struct {
	users         map[string]*internal.User     // userID -> User
	goals         map[string]*internal.Goal     // goalID -> Goal
	userGoals     map[string][]*internal.Goal   // userID -> goals (created_at desc)
	routines      map[string]*internal.Routine  // routineID -> Routine
	goalRoutines  map[string][]string           // goalID -> routine ids (date asc)
	progress      map[string]*internal.Progress // routineID -> Progress
	mu            sync.RWMutex
	usersFile     string
	goalsFile     string
	routinesFile  string
	progressFile  string
	saveChan      chan struct{}
	shutdownChan  chan struct{}
	closeOnce     sync.Once
	saveDelay     time.Duration
	logger        internal.Logger
}

func NewFileStorage(dataDir string, logger internal.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	s := &FileStorage{
		users:        make(map[string]*internal.User),
		goals:        make(map[string]*internal.Goal),
		userGoals:    make(map[string][]*internal.Goal),
		routines:     make(map[string]*internal.Routine),
		goalRoutines: make(map[string][]string),
		progress:     make(map[string]*internal.Progress),
		usersFile:    filepath.Join(dataDir, "users.json"),
		goalsFile:    filepath.Join(dataDir, "goals.json"),
		routinesFile: filepath.Join(dataDir, "routines.json"),
		progressFile: filepath.Join(dataDir, "progress.json"),
		saveChan:     make(chan struct{}, 1),
		shutdownChan: make(chan struct{}),
		saveDelay:    500 * time.Millisecond,
		logger:       logger,
	}

	if err := s.loadAll(); err != nil {
		logger.Errorf("storage: failed to load data files: %v", err)
		return nil, err
	}

	go s.saveWorker()

	return s, nil
}

func (s *FileStorage) loadAll() error {
	var users []*internal.User
	if err := readJSONFile(s.usersFile, &users); err != nil {
		return err
	}
	var goals []*internal.Goal
	if err := readJSONFile(s.goalsFile, &goals); err != nil {
		return err
	}
	var routines []*internal.Routine
	if err := readJSONFile(s.routinesFile, &routines); err != nil {
		return err
	}
	var progress []*internal.Progress
	if err := readJSONFile(s.progressFile, &progress); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.users[u.ID] = u
	}
	for _, g := range goals {
		s.goals[g.ID] = g
		s.userGoals[g.UserID] = append(s.userGoals[g.UserID], g)
	}
	for userID := range s.userGoals {
		sort.Slice(s.userGoals[userID], func(i, j int) bool {
			return s.userGoals[userID][i].CreatedAt.After(s.userGoals[userID][j].CreatedAt)
		})
	}
	for _, r := range routines {
		s.routines[r.ID] = r
		s.goalRoutines[r.GoalID] = append(s.goalRoutines[r.GoalID], r.ID)
	}
	for goalID := range s.goalRoutines {
		s.sortGoalRoutinesLocked(goalID)
	}
	for _, p := range progress {
		s.progress[p.RoutineID] = p
	}
	return nil
}

func (s *FileStorage) sortGoalRoutinesLocked(goalID string) {
	ids := s.goalRoutines[goalID]
	sort.Slice(ids, func(i, j int) bool {
		return s.routines[ids[i]].Date.Before(s.routines[ids[j]].Date)
	})
}

func readJSONFile(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveAll() error {
	s.mu.RLock()
	users := make([]*internal.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	goals := make([]*internal.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		goals = append(goals, g)
	}
	routines := make([]*internal.Routine, 0, len(s.routines))
	for _, r := range s.routines {
		routines = append(routines, r)
	}
	progress := make([]*internal.Progress, 0, len(s.progress))
	for _, p := range s.progress {
		progress = append(progress, p)
	}
	s.mu.RUnlock()

	if err := atomicWriteFileJSON(s.usersFile, users); err != nil {
		return err
	}
	if err := atomicWriteFileJSON(s.goalsFile, goals); err != nil {
		return err
	}
	if err := atomicWriteFileJSON(s.routinesFile, routines); err != nil {
		return err
	}
	return atomicWriteFileJSON(s.progressFile, progress)
}

// saveWorker batches save operations to avoid frequent disk writes.
func (s *FileStorage) saveWorker() {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-s.saveChan:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := s.saveAll(); err != nil {
				s.logger.Errorf("storage: error saving data files: %v", err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) signalSave() {
	select {
	case s.saveChan <- struct{}{}:
	default:
	}
}

func (s *FileStorage) Close() error {
	s.closeOnce.Do(func() { close(s.shutdownChan) })
	// Flush pending data synchronously on shutdown.
	return s.saveAll()
}

// --- UserRepository ---

func (s *FileStorage) GetUser(ctx context.Context, userID string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// SeedUser inserts a user directly. Development and test convenience; the
// real user store belongs to the auth collaborator.
func (s *FileStorage) SeedUser(u *internal.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	s.signalSave()
}

// --- GoalRepository ---

func (s *FileStorage) CreateGoalPlan(ctx context.Context, goal *internal.Goal, routines []internal.Routine, progress []internal.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Build-then-commit: everything lands under one lock acquisition, so a
	// reader never observes a goal with a partial plan.
	s.goals[goal.ID] = goal
	s.userGoals[goal.UserID] = append([]*internal.Goal{goal}, s.userGoals[goal.UserID]...)
	for i := range routines {
		r := routines[i]
		s.routines[r.ID] = &r
		s.goalRoutines[goal.ID] = append(s.goalRoutines[goal.ID], r.ID)
		p := progress[i]
		s.progress[p.RoutineID] = &p
	}
	s.sortGoalRoutinesLocked(goal.ID)

	s.signalSave()
	return nil
}

func (s *FileStorage) GetGoal(ctx context.Context, userID, goalID string) (*internal.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *g
	return &copied, nil
}

func (s *FileStorage) ListGoalSummaries(ctx context.Context, userID string, today internal.Date) ([]internal.GoalSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summaries []internal.GoalSummary
	for _, g := range s.userGoals[userID] {
		summary := internal.GoalSummary{Goal: *g}
		for _, routineID := range s.goalRoutines[g.ID] {
			r := s.routines[routineID]
			summary.Counts.Total++
			status := internal.DefaultProgressStatus
			if p, ok := s.progress[routineID]; ok {
				status = p.Status
			}
			switch {
			case status == internal.StatusCompleted:
				summary.Counts.Completed++
			case status == internal.StatusFailed:
				summary.Counts.Failed++
			case r.Date.Before(today):
				summary.Counts.AutoFailed++
			}
			if status == internal.StatusInProgress {
				summary.Counts.InProgress++
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *FileStorage) DeleteGoal(ctx context.Context, goalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[goalID]
	if !ok {
		return ErrNotFound
	}
	for _, routineID := range s.goalRoutines[goalID] {
		delete(s.progress, routineID)
		delete(s.routines, routineID)
	}
	delete(s.goalRoutines, goalID)
	delete(s.goals, goalID)
	s.userGoals[g.UserID] = removeGoal(s.userGoals[g.UserID], goalID)

	s.signalSave()
	return nil
}

func removeGoal(goals []*internal.Goal, goalID string) []*internal.Goal {
	for i, g := range goals {
		if g.ID == goalID {
			return append(goals[:i], goals[i+1:]...)
		}
	}
	return goals
}

// --- RoutineRepository ---

func (s *FileStorage) ListRoutines(ctx context.Context, goalID string) ([]internal.RoutineWithProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.goalRoutines[goalID]
	result := make([]internal.RoutineWithProgress, 0, len(ids))
	for _, routineID := range ids {
		rp := internal.RoutineWithProgress{Routine: *s.routines[routineID]}
		if p, ok := s.progress[routineID]; ok {
			rp.Progress = *p
		} else {
			rp.Progress = internal.Progress{RoutineID: routineID, Status: internal.DefaultProgressStatus}
		}
		result = append(result, rp)
	}
	return result, nil
}

func (s *FileStorage) GetRoutineOwned(ctx context.Context, userID, routineID string) (*internal.Routine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.routines[routineID]
	if !ok {
		return nil, ErrNotFound
	}
	g, ok := s.goals[r.GoalID]
	if !ok || g.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *FileStorage) ReplaceRoutines(ctx context.Context, goalID string, routines []internal.Routine, progress []internal.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.goals[goalID]; !ok {
		return ErrNotFound
	}
	for _, routineID := range s.goalRoutines[goalID] {
		delete(s.progress, routineID)
		delete(s.routines, routineID)
	}
	s.goalRoutines[goalID] = nil
	for i := range routines {
		r := routines[i]
		s.routines[r.ID] = &r
		s.goalRoutines[goalID] = append(s.goalRoutines[goalID], r.ID)
		p := progress[i]
		s.progress[p.RoutineID] = &p
	}
	s.sortGoalRoutinesLocked(goalID)

	s.signalSave()
	return nil
}

func (s *FileStorage) UpdateProgress(ctx context.Context, routineID string, upd internal.ProgressUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.routines[routineID]; !ok {
		return ErrNotFound
	}
	s.progress[routineID] = &internal.Progress{
		RoutineID:       routineID,
		Status:          upd.Status,
		ActualTimeSpent: upd.ActualTimeSpent,
		Feedback:        upd.Feedback,
		CompletedAt:     upd.CompletedAt,
	}

	s.signalSave()
	return nil
}

func (s *FileStorage) DeleteRoutine(ctx context.Context, routineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.routines[routineID]
	if !ok {
		return ErrNotFound
	}
	delete(s.progress, routineID)
	delete(s.routines, routineID)
	ids := s.goalRoutines[r.GoalID]
	for i, id := range ids {
		if id == routineID {
			s.goalRoutines[r.GoalID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}

	s.signalSave()
	return nil
}

// --- Compile-time assertions ---
var _ UserRepository = (*FileStorage)(nil)
var _ GoalRepository = (*FileStorage)(nil)
var _ RoutineRepository = (*FileStorage)(nil)
