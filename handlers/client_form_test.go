package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-step-by-step/client-form/dataservice"
	"wellness-step-by-step/client-form/events"
	"wellness-step-by-step/client-form/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiRequest struct {
	method string
	path   string
	body   map[string]any
}

// fakeAPI stands in for the client-records API.
type fakeAPI struct {
	mu       sync.Mutex
	requests []apiRequest
	status   int
	record   string
}

func (a *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := apiRequest{method: r.Method, path: r.URL.Path}
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &req.body)
		}
	}
	a.mu.Lock()
	a.requests = append(a.requests, req)
	status, record := a.status, a.record
	a.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if r.Method == http.MethodGet && record == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if record == "" {
		record = "{}"
	}
	io.WriteString(w, record)
}

func (a *fakeAPI) respond(status int, record string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status, a.record = status, record
}

func (a *fakeAPI) last() apiRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[len(a.requests)-1]
}

func (a *fakeAPI) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.SubmissionEvent
}

func (p *recordingPublisher) PublishAsync(e events.SubmissionEvent) <-chan struct{} {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
	done := make(chan struct{})
	close(done)
	return done
}

type harness struct {
	api       *fakeAPI
	router    *gin.Engine
	sessions  *session.MemoryStore
	publisher *recordingPublisher
	cookie    *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	h := &harness{
		api:       api,
		router:    gin.New(),
		sessions:  session.NewMemoryStore(time.Hour),
		publisher: &recordingPublisher{},
	}
	NewClientFormHandler(dataservice.NewHTTPService(srv.URL, nil), h.sessions, h.publisher, logger, time.Hour).Register(h.router)
	return h
}

func (h *harness) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			h.cookie = c
		}
	}
	return rec
}

func (h *harness) get(t *testing.T, path string) *httptest.ResponseRecorder {
	return h.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func (h *harness) submit(t *testing.T, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/clients/form/submit", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(t, req)
}

func validForm() url.Values {
	return url.Values{
		"name":   {"Maria Lopez"},
		"phone":  {"55501002"},
		"email":  {"maria@example.com"},
		"age":    {"34"},
		"gender": {"f"},
		"city":   {"Portland"},
	}
}

func TestNewClientCreatesRecord(t *testing.T) {
	h := newHarness(t)

	rec := h.get(t, "/clients/new")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ">Save</button>")
	assert.Equal(t, apiRequest{method: http.MethodGet, path: "/api/client/0"}, h.api.last())
	require.NotNil(t, h.cookie)

	rec = h.submit(t, validForm())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Client created successfully")

	created := h.api.last()
	assert.Equal(t, http.MethodPost, created.method)
	assert.Equal(t, "/api/client", created.path)
	assert.NotContains(t, created.body, "id")
	assert.Equal(t, "F", created.body["gender"])
	assert.EqualValues(t, 34, created.body["age"])

	state, err := h.sessions.Load(context.Background(), h.cookie.Value)
	require.NoError(t, err)
	assert.Empty(t, state.Values.Name)

	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, events.ClientCreated, h.publisher.events[0].Event)
	assert.Equal(t, "maria@example.com", h.publisher.events[0].Email)
}

func TestEditClientUpdatesRecord(t *testing.T) {
	h := newHarness(t)
	h.api.respond(0, `{"id":42,"name":"Maria Lopez","phone":"55501002","email":"maria@example.com","age":34,"gender":"F"}`)

	rec := h.get(t, "/clients/42/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="Maria Lopez"`)
	assert.Contains(t, body, ">Update</button>")
	assert.Equal(t, "/api/client/42", h.api.last().path)

	rec = h.submit(t, validForm())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Client updated successfully")

	updated := h.api.last()
	assert.Equal(t, http.MethodPut, updated.method)
	assert.EqualValues(t, 42, updated.body["id"])

	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, events.ClientUpdated, h.publisher.events[0].Event)
	assert.Equal(t, int64(42), h.publisher.events[0].ID)
}

func TestSubmitInvalidIsNotSent(t *testing.T) {
	h := newHarness(t)
	h.get(t, "/clients/new")
	before := h.api.count()

	form := validForm()
	form.Set("age", "90")
	rec := h.submit(t, form)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Are you sure you are more than 90?")
	assert.Equal(t, before, h.api.count())
	assert.Empty(t, h.publisher.events)
}

func TestLoadFailureShowsNotice(t *testing.T) {
	h := newHarness(t)
	h.api.respond(http.StatusInternalServerError, "")

	rec := h.get(t, "/clients/7/edit")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Code: 500 Message: Internal Server Error")
}

func TestSubmitFailureKeepsValues(t *testing.T) {
	h := newHarness(t)
	h.get(t, "/clients/new")
	h.api.respond(http.StatusConflict, "")

	rec := h.submit(t, validForm())
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Code: 409 Message: Conflict")
	assert.Contains(t, body, `value="Maria Lopez"`)
	assert.Empty(t, h.publisher.events)
}

func TestChangeField(t *testing.T) {
	h := newHarness(t)
	h.get(t, "/clients/new")

	payload, _ := json.Marshal(map[string]string{"field": "gender", "value": "m"})
	req := httptest.NewRequest(http.MethodPost, "/clients/form/field", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := h.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Values map[string]string `json:"values"`
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "M", resp.Values["gender"])
	assert.Empty(t, resp.Errors)

	payload, _ = json.Marshal(map[string]string{"field": "nickname", "value": "x"})
	req = httptest.NewRequest(http.MethodPost, "/clients/form/field", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, h.do(t, req).Code)
}

func TestCloseNotice(t *testing.T) {
	h := newHarness(t)
	h.get(t, "/clients/new")
	h.submit(t, validForm())

	rec := h.do(t, httptest.NewRequest(http.MethodPost, "/clients/form/notice/close", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/clients/form", rec.Header().Get("Location"))

	state, err := h.sessions.Load(context.Background(), h.cookie.Value)
	require.NoError(t, err)
	assert.False(t, state.Notice.Open)

	rec = h.get(t, "/clients/form")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Client created successfully")
}

func TestDialogDismissals(t *testing.T) {
	h := newHarness(t)
	h.get(t, "/clients/new")

	ctx := context.Background()
	state, err := h.sessions.Load(ctx, h.cookie.Value)
	require.NoError(t, err)
	state.Dialog.Show("Confirm", "Discard changes?")
	require.NoError(t, h.sessions.Save(ctx, h.cookie.Value, state))

	assert.Contains(t, h.get(t, "/clients/form").Body.String(), "Discard changes?")

	rec := h.do(t, httptest.NewRequest(http.MethodPost, "/clients/form/dialog/ok", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	state, err = h.sessions.Load(ctx, h.cookie.Value)
	require.NoError(t, err)
	assert.False(t, state.Dialog.Open)

	rec = h.do(t, httptest.NewRequest(http.MethodPost, "/clients/form/dialog/close", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestWithoutSessionRedirectsToNewForm(t *testing.T) {
	h := newHarness(t)

	rec := h.submit(t, validForm())
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/clients/new", rec.Header().Get("Location"))
	assert.Zero(t, h.api.count())
}

func TestEditRejectsBadID(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusBadRequest, h.get(t, "/clients/abc/edit").Code)
	assert.Equal(t, http.StatusBadRequest, h.get(t, "/clients/0/edit").Code)
}
