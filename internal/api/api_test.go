package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pty0735/routinely/internal"
	"github.com/pty0735/routinely/internal/auth"
	"github.com/pty0735/routinely/internal/clock"
	"github.com/pty0735/routinely/internal/config"
	"github.com/pty0735/routinely/internal/plan"
	"github.com/pty0735/routinely/internal/service"
	"github.com/pty0735/routinely/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubGenerator struct {
	text string
	err  error
}

func (g *stubGenerator) GeneratePlan(ctx context.Context, req plan.PlanRequest) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

// planned output for 2024-01-01 .. 2024-01-03, one parseable line per day
func threeDayPlan() string {
	return "제목: 달리기 시작하기\n" +
		"1. 1일차: 가벼운 스트레칭 (예상 소요시간: 20분)\n" +
		"2. 2일차: 2km 달리기 (예상 소요시간: 30분)\n" +
		"3. 3일차: 3km 달리기 (예상 소요시간: 40분)\n" +
		"추가 조언: 무리하지 마세요"
}

func newTestServer(t *testing.T, gen plan.Generator) *gin.Engine {
	t.Helper()

	fs, err := storage.NewFileStorage(t.TempDir(), internal.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { fs.Close() })
	fs.SeedUser(&internal.User{ID: "u1", Email: "u1@example.com", Name: "Test User", Age: 25})

	deps := service.Deps{
		Goals:    fs,
		Routines: fs,
		Users:    fs,
		Gen:      gen,
		Clock:    clock.Fixed{Date: internal.NewDate(2024, time.January, 1)},
		Log:      internal.NopLogger{},
	}
	cfg := &config.Config{Env: "development", JWTSecret: testSecret}
	provider := auth.NewLocalAuthProvider(cfg.JWTSecret, internal.NopLogger{})
	return NewRouter(NewApp(deps), provider, cfg)
}

func signToken(t *testing.T, secret, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"email":  userID + "@example.com",
		"name":   "Test User",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestHealthz(t *testing.T) {
	r := newTestServer(t, &stubGenerator{text: threeDayPlan()})
	w := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDEcho(t *testing.T) {
	r := newTestServer(t, &stubGenerator{text: threeDayPlan()})

	// A caller-supplied id is honored.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	// Otherwise one is generated.
	w = doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestServer(t, &stubGenerator{text: threeDayPlan()})

	// Drive one request through the middleware so the counter has a sample.
	doJSON(t, r, http.MethodGet, "/healthz", "", nil)

	w := doJSON(t, r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "routinely_http_requests_total")
	assert.Contains(t, w.Body.String(), `route="/healthz"`)
}

func TestAuthRequired(t *testing.T) {
	r := newTestServer(t, &stubGenerator{text: threeDayPlan()})

	w := doJSON(t, r, http.MethodGet, "/api/goals", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/goals", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	wrongKey := signToken(t, "some-other-secret", "u1")
	w = doJSON(t, r, http.MethodGet, "/api/goals", wrongKey, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGoalLifecycle(t *testing.T) {
	r := newTestServer(t, &stubGenerator{text: threeDayPlan()})
	token := signToken(t, testSecret, "u1")

	// Create: today 2024-01-01, target 2024-01-03 spans three days.
	w := doJSON(t, r, http.MethodPost, "/api/goals", token, map[string]string{
		"category":    "exercise",
		"description": "매일 달리기",
		"target_date": "2024-01-03",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created service.CreateGoalResult
	decodeData(t, w, &created)
	require.NotEmpty(t, created.GoalID)
	assert.Equal(t, 3, created.TotalDays)
	assert.Equal(t, 3, created.RoutinesCreated)
	assert.Contains(t, created.Plan, "1일차")

	// The fresh goal lists as in-progress.
	w = doJSON(t, r, http.MethodGet, "/api/goals", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var categorized service.CategorizedGoals
	decodeData(t, w, &categorized)
	require.Len(t, categorized.InProgress, 1)
	assert.Empty(t, categorized.Completed)
	assert.Equal(t, created.GoalID, categorized.InProgress[0].ID)
	assert.Equal(t, 3, categorized.InProgress[0].Counts.Total)

	// Status filter returns a flat list.
	w = doJSON(t, r, http.MethodGet, "/api/goals?status=completed", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var filtered []internal.GoalSummary
	decodeData(t, w, &filtered)
	assert.Empty(t, filtered)

	// Detail resolves display status per routine against the fixed clock.
	w = doJSON(t, r, http.MethodGet, "/api/goals/"+created.GoalID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail service.GoalDetail
	decodeData(t, w, &detail)
	require.Len(t, detail.Routines, 3)
	assert.Equal(t, internal.DisplayToday, detail.Routines[0].RoutineStatus)
	assert.Equal(t, internal.DisplayFuture, detail.Routines[1].RoutineStatus)
	assert.Equal(t, internal.DisplayFuture, detail.Routines[2].RoutineStatus)

	todayID := detail.Routines[0].ID
	futureID := detail.Routines[1].ID

	// Only today's routine accepts progress.
	w = doJSON(t, r, http.MethodPut, "/api/routines/"+todayID+"/progress", token, map[string]interface{}{
		"status":            "completed",
		"actual_time_spent": 25,
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPut, "/api/routines/"+futureID+"/progress", token, map[string]interface{}{
		"status": "completed",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/goals/"+created.GoalID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &detail)
	assert.Equal(t, internal.StatusCompleted, detail.Routines[0].Progress.Status)
	require.NotNil(t, detail.Routines[0].Progress.ActualTimeSpent)
	assert.Equal(t, 25, *detail.Routines[0].Progress.ActualTimeSpent)

	// Deleting a routine and then the goal itself.
	w = doJSON(t, r, http.MethodDelete, "/api/routines/"+futureID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/goals/"+created.GoalID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/goals/"+created.GoalID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, r, http.MethodDelete, "/api/goals/"+created.GoalID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateGoalValidation(t *testing.T) {
	r := newTestServer(t, &stubGenerator{text: threeDayPlan()})
	token := signToken(t, testSecret, "u1")

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing description", map[string]string{"category": "exercise", "target_date": "2024-01-03"}},
		{"missing category", map[string]string{"description": "달리기", "target_date": "2024-01-03"}},
		{"bad date", map[string]string{"category": "exercise", "description": "달리기", "target_date": "01/03/2024"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/goals", token, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var envelope struct {
				Error *internal.AppError `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
			require.NotNil(t, envelope.Error)
			assert.NotEmpty(t, envelope.Error.Message)
		})
	}
}

func TestCreateGoalUpstreamFailure(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("boom")}
	r := newTestServer(t, gen)
	token := signToken(t, testSecret, "u1")

	w := doJSON(t, r, http.MethodPost, "/api/goals", token, map[string]string{
		"category":    "exercise",
		"description": "달리기",
		"target_date": "2024-01-03",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var envelope struct {
		Error *internal.AppError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "failed to generate a routine plan", envelope.Error.Message)

	// No partial goal was left behind.
	w = doJSON(t, r, http.MethodGet, "/api/goals", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var categorized service.CategorizedGoals
	decodeData(t, w, &categorized)
	assert.Empty(t, categorized.InProgress)
}

func TestReplaceRoutinesEndpoint(t *testing.T) {
	r := newTestServer(t, &stubGenerator{text: threeDayPlan()})
	token := signToken(t, testSecret, "u1")

	w := doJSON(t, r, http.MethodPost, "/api/goals", token, map[string]string{
		"category":    "study",
		"description": "영어 공부",
		"target_date": "2024-01-02",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created service.CreateGoalResult
	decodeData(t, w, &created)

	w = doJSON(t, r, http.MethodPost, "/api/goals/"+created.GoalID+"/routines", token, map[string]interface{}{
		"routines": []map[string]interface{}{
			{"date": "2024-01-01", "activity": "단어 암기", "estimated_duration": 20},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var detail service.GoalDetail
	w = doJSON(t, r, http.MethodGet, "/api/goals/"+created.GoalID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &detail)
	require.Len(t, detail.Routines, 1)
	assert.Equal(t, "단어 암기", detail.Routines[0].Activity)
}

func TestGetProfile(t *testing.T) {
	r := newTestServer(t, &stubGenerator{text: threeDayPlan()})
	token := signToken(t, testSecret, "u1")

	w := doJSON(t, r, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var profile internal.User
	decodeData(t, w, &profile)
	assert.Equal(t, "u1", profile.ID)
	assert.Equal(t, 25, profile.Age)
}
