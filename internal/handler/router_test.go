package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobquest/jobquest/internal/auth"
	"github.com/jobquest/jobquest/internal/metrics"
	"github.com/jobquest/jobquest/internal/middleware"
	"github.com/jobquest/jobquest/internal/model"
	"github.com/jobquest/jobquest/internal/payment"
	"github.com/jobquest/jobquest/internal/service"
	"github.com/jobquest/jobquest/internal/testutil"
	"github.com/jobquest/jobquest/internal/testutil/fakes"
)

type routerEnv struct {
	handler  http.Handler
	store    *fakes.MemStore
	provider *fakes.FakeProvider
	codec    *auth.Codec
	metrics  *metrics.InMemoryRecorder
}

type envOptions struct {
	strict     bool
	production bool
}

func newRouterEnv(t *testing.T, opts envOptions) *routerEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	codec, err := auth.NewCodec("test-secret", time.Hour)
	require.NoError(t, err)

	store := fakes.NewMemStore()
	provider := &fakes.FakeProvider{}
	rec := metrics.NewInMemory()

	jobs := service.NewJobService(store, rec, opts.strict)
	apps := service.NewApplicationService(store, rec, opts.strict)
	premium := service.NewPremiumService(store, provider, rec, opts.strict)

	h := NewRouter(RouterConfig{
		Logger:         logger,
		Production:     opts.production,
		Strict:         opts.strict,
		AllowedOrigins: []string{"http://localhost:5173"},
		MaxBodySize:    1 << 20,
		Verifier:       codec,
		Metrics:        rec,
		Health:         NewHealthHandler(nil, nil, logger),
		Sessions:       NewSessionHandler(codec, opts.production, logger),
		Jobs:           NewJobHandler(jobs, logger),
		Applications:   NewApplicationHandler(apps, logger),
		Stories:        NewStoryHandler(service.NewStoryService(store), logger),
		Premium:        NewPremiumHandler(premium, logger),
	})

	return &routerEnv{handler: h, store: store, provider: provider, codec: codec, metrics: rec}
}

// do sends a request, authenticated as identity when it is not empty.
func (e *routerEnv) do(t *testing.T, method, target, identity string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if identity != "" {
		token, err := e.codec.Issue(identity)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *routerEnv) applicants(id string) int64 {
	job := e.store.Job(id)
	return job.ApplicantCount()
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRouter_Welcome(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})

	rec := env.do(t, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to jobQuest", rec.Body.String())
}

func TestRouter_SessionCookie(t *testing.T) {
	tests := []struct {
		name         string
		production   bool
		wantSecure   bool
		wantSameSite http.SameSite
	}{
		{"development", false, false, http.SameSiteStrictMode},
		{"production", true, true, http.SameSiteNoneMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newRouterEnv(t, envOptions{strict: true, production: tt.production})

			rec := env.do(t, http.MethodPost, "/jwt", "", map[string]string{"user": "a@x.com"})
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, true, decodeBody[map[string]bool](t, rec)["success"])

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			c := cookies[0]
			assert.Equal(t, middleware.CookieName, c.Name)
			assert.True(t, c.HttpOnly)
			assert.Equal(t, "/", c.Path)
			assert.Equal(t, tt.wantSecure, c.Secure)
			assert.Equal(t, tt.wantSameSite, c.SameSite)
			assert.Equal(t, 3600, c.MaxAge)

			identity, err := env.codec.Verify(c.Value)
			require.NoError(t, err)
			assert.Equal(t, "a@x.com", identity)

			rec = env.do(t, http.MethodPost, "/logout", "", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			cookies = rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Empty(t, cookies[0].Value)
			assert.Less(t, cookies[0].MaxAge, 0, "Max-Age=0 parses as a negative MaxAge")
			assert.Equal(t, tt.wantSecure, cookies[0].Secure)
			assert.Equal(t, tt.wantSameSite, cookies[0].SameSite)
		})
	}
}

func TestRouter_IssueTokenRejectsBadBody(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})

	for _, body := range []string{`{`, `{}`, `{"user":{"email":"a@x.com"}}`} {
		rec := env.do(t, http.MethodPost, "/jwt", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, codeInvalidJSON, decodeBody[map[string]string](t, rec)["code"])
		assert.Empty(t, rec.Result().Cookies())
	}
}

func TestRouter_MyJobs(t *testing.T) {
	for _, strict := range []bool{true, false} {
		t.Run(fmt.Sprintf("strict=%v", strict), func(t *testing.T) {
			env := newRouterEnv(t, envOptions{strict: strict})
			mine := testutil.NewTestJob(t, "a@x.com")
			env.store.AddJob(*mine)
			env.store.AddJob(*testutil.NewTestJob(t, "b@x.com"))

			rec := env.do(t, http.MethodGet, "/my-jobs?email=a@x.com", "a@x.com", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			jobs := decodeBody[[]model.Job](t, rec)
			require.Len(t, jobs, 1)
			assert.Equal(t, mine.ID, jobs[0].ID)

			rec = env.do(t, http.MethodGet, "/my-jobs?email=b@x.com", "a@x.com", nil)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, errorBody{"Forbidden access", "FORBIDDEN"}, decodeBody[errorBody](t, rec))

			rec = env.do(t, http.MethodGet, "/my-jobs?email=a@x.com", "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, errorBody{"unauthorized access", "UNAUTHENTICATED"}, decodeBody[errorBody](t, rec))
		})
	}
}

func TestRouter_MyJobsRejectsTamperedCookie(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})

	req := httptest.NewRequest(http.MethodGet, "/my-jobs?email=a@x.com", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: "not-a-token"})
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, uint64(1), env.metrics.Snapshot().AuthRejected["malformed"])
}

func TestRouter_Applications(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})
	job := testutil.NewTestJob(t, "owner@x.com")
	job.SetApplicantCount(3)
	env.store.AddJob(*job)

	body := map[string]any{"job_id": job.ID, "email": "a@x.com", "resume": "https://cv.example.com"}

	rec := env.do(t, http.MethodPost, "/application", "b@x.com", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, int64(3), env.applicants(job.ID))

	rec = env.do(t, http.MethodPost, "/application", "a@x.com", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeBody[model.InsertResult](t, rec)
	assert.True(t, res.Acknowledged)
	assert.True(t, model.IsValidID(res.InsertedID))
	assert.Equal(t, int64(4), env.applicants(job.ID))

	rec = env.do(t, http.MethodGet, "/applications?email=a@x.com", "a@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	apps := decodeBody[[]model.Application](t, rec)
	require.Len(t, apps, 1)
	assert.Equal(t, job.ID, apps[0].JobID)
	assert.JSONEq(t, `"https://cv.example.com"`, string(apps[0].Extra["resume"]))
}

func TestRouter_ApplyToUnknownJob(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})

	rec := env.do(t, http.MethodPost, "/application", "a@x.com",
		map[string]string{"job_id": model.NewID(), "email": "a@x.com"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeNotFound, decodeBody[errorBody](t, rec).Code)
}

func TestRouter_GetJob(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})
	job := testutil.NewTestJob(t, "a@x.com")
	env.store.AddJob(*job)

	rec := env.do(t, http.MethodGet, "/jobs/"+job.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[model.Job](t, rec)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, job.Doc, got.Doc)

	rec = env.do(t, http.MethodGet, "/jobs/not-an-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidID, decodeBody[errorBody](t, rec).Code)

	rec = env.do(t, http.MethodGet, "/jobs/"+model.NewID(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ListJobsEmpty(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})

	for _, path := range []string{"/jobs", "/stories"} {
		rec := env.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String(), path)
	}
}

func TestRouter_CreateJob(t *testing.T) {
	body := map[string]any{
		"job_title": "Designer",
		"posted_by": map[string]string{"email": "a@x.com", "name": "A"},
	}

	t.Run("strict requires the poster", func(t *testing.T) {
		env := newRouterEnv(t, envOptions{strict: true})

		rec := env.do(t, http.MethodPost, "/", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = env.do(t, http.MethodPost, "/", "b@x.com", body)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(t, http.MethodPost, "/", "a@x.com", body)
		require.Equal(t, http.StatusOK, rec.Code)
		res := decodeBody[model.InsertResult](t, rec)
		stored := env.store.Job(res.InsertedID)
		assert.JSONEq(t, `"Designer"`, string(stored.Field("job_title")))
		assert.Equal(t, "a@x.com", stored.OwnerEmail())
	})

	t.Run("compat accepts anonymous writes", func(t *testing.T) {
		env := newRouterEnv(t, envOptions{strict: false})

		rec := env.do(t, http.MethodPost, "/", "", body)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		env := newRouterEnv(t, envOptions{strict: true})

		rec := env.do(t, http.MethodPost, "/", "a@x.com", `{"job_title":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeInvalidJSON, decodeBody[errorBody](t, rec).Code)
	})
}

func TestRouter_DeleteJob(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})
	job := testutil.NewTestJob(t, "a@x.com")
	env.store.AddJob(*job)

	rec := env.do(t, http.MethodDelete, "/"+model.NewID(), "a@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.DeleteResult{Acknowledged: true, DeletedCount: 0}, decodeBody[model.DeleteResult](t, rec))

	rec = env.do(t, http.MethodDelete, "/"+job.ID, "b@x.com", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, job.ID, env.store.Job(job.ID).ID)

	rec = env.do(t, http.MethodDelete, "/"+job.ID, "a@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decodeBody[model.DeleteResult](t, rec).DeletedCount)

	rec = env.do(t, http.MethodDelete, "/bad-id", "a@x.com", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_UpsertJob(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})
	job := testutil.NewTestJob(t, "a@x.com")
	env.store.AddJob(*job)

	body := map[string]any{"job_title": "Staff Engineer", "salary_range": "$150k"}

	rec := env.do(t, http.MethodPatch, "/"+job.ID, "b@x.com", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPatch, "/"+job.ID, "a@x.com", body)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[model.UpdateResult](t, rec)
	assert.Equal(t, int64(1), res.MatchedCount)
	assert.Equal(t, int64(1), res.ModifiedCount)

	stored := env.store.Job(job.ID)
	assert.JSONEq(t, `"Staff Engineer"`, string(stored.Field("job_title")))
	assert.Equal(t, "a@x.com", stored.OwnerEmail())

	id := model.NewID()
	rec = env.do(t, http.MethodPatch, "/"+id, "b@x.com", body)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeBody[model.UpdateResult](t, rec)
	assert.Equal(t, int64(1), res.UpsertedCount)
	require.NotNil(t, res.UpsertedID)
	assert.Equal(t, id, *res.UpsertedID)

	created := env.store.Job(id)
	assert.Equal(t, "b@x.com", created.OwnerEmail())
	rec = env.do(t, http.MethodDelete, "/"+id, "b@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decodeBody[model.DeleteResult](t, rec).DeletedCount)
}

func TestRouter_CreateJobStoresDocumentVerbatim(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
		body   string
	}{
		{
			name:   "structured values",
			strict: true,
			body: `{
				"job_title": "Designer",
				"salary_range": {"min": 1000, "max": 2000},
				"deadline": 1767225600,
				"number_of_applicants": "many",
				"posted_by": {"email": "a@x.com", "name": "A"},
				"tags": ["ux"]
			}`,
		},
		{name: "empty document", strict: false, body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newRouterEnv(t, envOptions{strict: tt.strict})

			rec := env.do(t, http.MethodPost, "/", "a@x.com", tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			id := decodeBody[model.InsertResult](t, rec).InsertedID

			stored := env.store.Job(id)
			raw, err := json.Marshal(model.Job{Doc: stored.Doc})
			require.NoError(t, err)
			assert.JSONEq(t, tt.body, string(raw))

			rec = env.do(t, http.MethodGet, "/jobs/"+id, "", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			got := decodeBody[map[string]json.RawMessage](t, rec)
			assert.JSONEq(t, fmt.Sprintf("%q", id), string(got["_id"]))
			delete(got, "_id")
			raw, err = json.Marshal(got)
			require.NoError(t, err)
			assert.JSONEq(t, tt.body, string(raw))
		})
	}
}

func TestRouter_UpsertJobWritesValuesVerbatim(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})
	job := testutil.NewTestJob(t, "a@x.com")
	env.store.AddJob(*job)

	rec := env.do(t, http.MethodPatch, "/"+job.ID, "a@x.com", `{"salary_range":{"min":1},"deadline":20300101}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/jobs/"+job.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[map[string]json.RawMessage](t, rec)

	assert.JSONEq(t, `{"min":1}`, string(got["salary_range"]))
	assert.JSONEq(t, `20300101`, string(got["deadline"]))
	for _, key := range []string{"job_title", "job_img", "job_category", "job_description", "number_of_applicants"} {
		assert.Equal(t, "null", string(got[key]), key)
	}
	assert.JSONEq(t, `{"email":"a@x.com"}`, string(got["posted_by"]))
}

func TestRouter_PaymentIntent(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})

	rec := env.do(t, http.MethodPost, "/create-payment-intent", "", map[string]float64{"price": 19.999})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/create-payment-intent", "a@x.com", map[string]float64{"price": 19.999})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pi_test_secret", decodeBody[map[string]string](t, rec)["clientSecret"])
	assert.Equal(t, []int64{1999}, env.provider.Amounts())

	for _, body := range []string{`{"price":0}`, `{"price":-5}`, `{}`} {
		rec = env.do(t, http.MethodPost, "/create-payment-intent", "a@x.com", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, codeInvalidPrice, decodeBody[errorBody](t, rec).Code)
	}
	assert.Len(t, env.provider.Amounts(), 1)

	env.provider.Err = fmt.Errorf("%w: card_declined", payment.ErrUpstream)
	rec = env.do(t, http.MethodPost, "/create-payment-intent", "a@x.com", map[string]float64{"price": 5})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, codeUpstream, decodeBody[errorBody](t, rec).Code)
}

func TestRouter_Premium(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})

	rec := env.do(t, http.MethodGet, "/premium?email=a@x.com", "a@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(bytes.TrimSpace(rec.Body.Bytes())))

	rec = env.do(t, http.MethodPost, "/create-premium", "b@x.com", map[string]string{"email": "a@x.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/create-premium", "a@x.com", map[string]string{"email": "a@x.com", "plan": "gold"})
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodeBody[model.InsertResult](t, rec)

	rec = env.do(t, http.MethodGet, "/premium?email=a@x.com", "a@x.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decodeBody[model.Premium](t, rec)
	assert.Equal(t, created.InsertedID, p.ID)
	assert.JSONEq(t, `"gold"`, string(p.Extra["plan"]))

	rec = env.do(t, http.MethodGet, "/premium?email=a@x.com", "b@x.com", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_PremiumCompatIsOpen(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: false})

	rec := env.do(t, http.MethodPost, "/create-premium", "", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/premium?email=a@x.com", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", decodeBody[model.Premium](t, rec).Email)
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})

	req := httptest.NewRequest(http.MethodOptions, "/application", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_RecordsRequests(t *testing.T) {
	env := newRouterEnv(t, envOptions{strict: true})

	env.do(t, http.MethodGet, "/jobs/"+model.NewID(), "", nil)
	env.do(t, http.MethodGet, "/nowhere/at/all", "", nil)

	assert.Equal(t, uint64(2), env.metrics.Snapshot().HTTPRequests)
}

// errorBody mirrors the error envelope for assertions.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}
