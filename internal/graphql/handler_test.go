package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/training-portal/internal/content"
	"github.com/mo-amir99/training-portal/internal/content/contenttest"
	"github.com/mo-amir99/training-portal/internal/features/progress"
	"github.com/mo-amir99/training-portal/internal/middleware"
	"github.com/mo-amir99/training-portal/internal/onelake"
	"github.com/mo-amir99/training-portal/internal/services/catalog"
	"github.com/mo-amir99/training-portal/internal/utils/jwt"
	"github.com/mo-amir99/training-portal/pkg/types"
)

var studentID = uuid.MustParse("2d1b7c5e-8f43-4a55-9c1e-0b6f1a3c9d11")

type tokens map[string]*jwt.Claims

func (t tokens) Authenticate(_ context.Context, token string) (*jwt.Claims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, jwt.ErrInvalidToken
}

type progressRepo struct {
	rows []progress.UserProgress
}

func (r *progressRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]progress.UserProgress, error) {
	var out []progress.UserProgress
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *progressRepo) Merge(_ context.Context, p *progress.UserProgress) error {
	for i, row := range r.rows {
		if row.UserID == p.UserID && row.DayNumber == p.DayNumber {
			row.ViewedPresentation = row.ViewedPresentation || p.ViewedPresentation
			row.ViewedRecording = row.ViewedRecording || p.ViewedRecording
			row.Recompute()
			row.LastAccessed = p.LastAccessed
			r.rows[i] = row
			*p = row
			return nil
		}
	}
	p.ID = uuid.New()
	r.rows = append(r.rows, *p)
	return nil
}

func newTestServer(t *testing.T) (*gin.Engine, *contenttest.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := contenttest.NewStore()
	store.Seed(content.DaysDocument, content.DefaultCatalog().LockedDays())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := catalog.NewService(catalog.Config{}, content.NewClient(store, logger), nil, nil, nil, nil, logger)
	prog := progress.NewService(&progressRepo{}, svc, nil, logger)

	auth := tokens{
		"admin-session":   {Role: types.UserTypeAdmin, Capabilities: types.AdminCapabilities},
		"student-session": {UserID: &studentID, Role: types.UserTypeStudent, Capabilities: types.StudentCapabilities},
	}

	h, err := NewHandler(NewResolver(svc, prog, auth), logger)
	require.NoError(t, err)

	r := gin.New()
	RegisterRoutes(r.Group(""), h, middleware.NewAuthMiddleware(auth, logger))
	return r, store
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func exec(t *testing.T, r *gin.Engine, bearer, query string, vars map[string]any) gqlResponse {
	t.Helper()
	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out gqlResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestUnlockDayMutation(t *testing.T) {
	r, _ := newTestServer(t)

	res := exec(t, r, "", `mutation($n: Int!) { unlockDay(input: {dayNumber: $n, adminToken: "admin-session"}) { dayNumber isUnlocked unlockedBy } }`,
		map[string]any{"n": 2})
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"dayNumber":2,"isUnlocked":true,"unlockedBy":"admin"}`, string(res.Data["unlockDay"]))

	res = exec(t, r, "", `{ unlockedDays { dayNumber } }`, nil)
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `[{"dayNumber":2}]`, string(res.Data["unlockedDays"]))
}

func TestMutationRequiresCapability(t *testing.T) {
	r, store := newTestServer(t)

	res := exec(t, r, "", `mutation { lockDay(dayNumber: 1, adminToken: "nope") { dayNumber } }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "unauthorized", res.Errors[0].Extensions["code"])

	res = exec(t, r, "student-session", `mutation { lockDay(dayNumber: 1) { dayNumber } }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "forbidden", res.Errors[0].Extensions["code"])

	assert.Zero(t, store.Puts)
}

func TestTrainingDayQuery(t *testing.T) {
	r, _ := newTestServer(t)

	res := exec(t, r, "admin-session", `mutation { uploadRecording(input: {dayNumber: 1, title: "Kickoff", videoUrl: "https://vimeo.com/77", platform: VIMEO}) { embedUrl platform } }`, nil)
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"embedUrl":"https://player.vimeo.com/video/77","platform":"VIMEO"}`, string(res.Data["uploadRecording"]))

	res = exec(t, r, "", `{ trainingDay(dayNumber: 1) { title recording { title } } }`, nil)
	require.Empty(t, res.Errors)
	assert.Contains(t, string(res.Data["trainingDay"]), `"recording":{"title":"Kickoff"}`)

	res = exec(t, r, "", `{ trainingDay(dayNumber: 40) { title } }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, "null", string(res.Data["trainingDay"]))
}

func TestStoreUnavailable(t *testing.T) {
	r, store := newTestServer(t)
	store.GetErr = onelake.ErrUnavailable

	res := exec(t, r, "", `{ trainingDays { dayNumber } }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Content store unavailable", res.Errors[0].Message)
	assert.Equal(t, "unavailable", res.Errors[0].Extensions["code"])
	assert.Equal(t, true, res.Errors[0].Extensions["retryable"])
}

func TestMarkContentViewed(t *testing.T) {
	r, _ := newTestServer(t)

	res := exec(t, r, "student-session", `mutation { markContentViewed(input: {dayNumber: 3, contentType: RECORDING}) { completionPercentage } }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "conflict", res.Errors[0].Extensions["code"])

	res = exec(t, r, "", `mutation { unlockDay(input: {dayNumber: 3, adminToken: "admin-session"}) { dayNumber } }`, nil)
	require.Empty(t, res.Errors)

	res = exec(t, r, "student-session", `mutation { markContentViewed(input: {dayNumber: 3, contentType: RECORDING}) { userId viewedRecording completionPercentage } }`, nil)
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"userId":"`+studentID.String()+`","viewedRecording":true,"completionPercentage":50}`, string(res.Data["markContentViewed"]))

	res = exec(t, r, "student-session", `{ userProgress { dayNumber } }`, nil)
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `[{"dayNumber":3}]`, string(res.Data["userProgress"]))

	res = exec(t, r, "student-session", `{ userProgress(userId: "`+uuid.NewString()+`") { dayNumber } }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "forbidden", res.Errors[0].Extensions["code"])
}
