package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/pkg/logger"
)

func newTestServer(t *testing.T) (*server, *ledger.Ledger) {
	t.Helper()

	var n atomic.Int64
	l := ledger.New(
		ledger.WithIDGenerator(func() string { return fmt.Sprintf("b%d", n.Add(1)) }),
		ledger.WithClock(func() time.Time { return time.UnixMilli(0).UTC() }),
		ledger.WithCatalog(ledger.ResourceInfo{Key: "R1", Name: "Blue room", Description: "6 seats"}),
		ledger.WithResources("R2"),
	)

	return newServer(Config{}, logger.NewStub(), l), l
}

func do(t *testing.T, s *server, method, target, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.http.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestServer_Propose(t *testing.T) {
	tests := [...]struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "first booking",
			body:       `{"resource":"R1","requester":"alice","start":100,"end":200}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "touching booking",
			body:       `{"resource":"R1","requester":"bob","start":200,"end":300}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "overlapping booking",
			body:       `{"resource":"R1","requester":"carol","start":150,"end":250}`,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "other resource",
			body:       `{"resource":"R2","requester":"carol","start":150,"end":250}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "empty interval",
			body:       `{"resource":"R1","requester":"dave","start":500,"end":500}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no resource",
			body:       `{"requester":"dave","start":500,"end":600}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad json",
			body:       `{"resource":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	s, _ := newTestServer(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			status, body := do(t, s, http.MethodPost, "/bookings", test.body)
			require.Equal(t, test.wantStatus, status, string(body))
		})
	}
}

func TestServer_ConflictBody(t *testing.T) {
	s, _ := newTestServer(t)

	status, _ := do(t, s, http.MethodPost, "/bookings", `{"resource":"R1","requester":"a","start":0,"end":10}`)
	require.Equal(t, http.StatusCreated, status)
	status, _ = do(t, s, http.MethodPost, "/bookings", `{"resource":"R1","requester":"a","start":10,"end":20}`)
	require.Equal(t, http.StatusCreated, status)

	status, body := do(t, s, http.MethodPost, "/bookings", `{"resource":"R1","requester":"b","start":5,"end":15}`)
	require.Equal(t, http.StatusConflict, status)

	resp := decode[errorResponse](t, body)
	require.Equal(t, "ERROR", resp.Status)
	require.Len(t, resp.Conflicts, 2)
	require.Equal(t, "b1", resp.Conflicts[0].ID)
	require.Equal(t, "b2", resp.Conflicts[1].ID)
}

func TestServer_BookingLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	status, body := do(t, s, http.MethodPost, "/bookings", `{"resource":"R1","requester":"alice","start":100,"end":200}`)
	require.Equal(t, http.StatusCreated, status)
	created := decode[ledger.Booking](t, body)
	require.Equal(t, "b1", created.ID)
	require.Equal(t, ledger.StatusConfirmed, created.Status)
	require.Equal(t, int64(100), created.Interval.Start())

	status, body = do(t, s, http.MethodGet, "/bookings/b1", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, created, decode[ledger.Booking](t, body))

	status, body = do(t, s, http.MethodPatch, "/bookings/b1", `{"start":300,"end":400}`)
	require.Equal(t, http.StatusOK, status)
	moved := decode[ledger.Booking](t, body)
	require.Equal(t, "R1", moved.Resource)
	require.Equal(t, int64(300), moved.Interval.Start())

	status, body = do(t, s, http.MethodPatch, "/bookings/b1", `{"resource":"R2","start":300,"end":400}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "R2", decode[ledger.Booking](t, body).Resource)

	status, _ = do(t, s, http.MethodPatch, "/bookings/b1", `{"start":400,"end":300}`)
	require.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, s, http.MethodDelete, "/bookings/b1", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, ledger.StatusCancelled, decode[ledger.Booking](t, body).Status)

	status, _ = do(t, s, http.MethodDelete, "/bookings/b1", "")
	require.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, s, http.MethodPatch, "/bookings/b1", `{"start":0,"end":10}`)
	require.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, s, http.MethodGet, "/bookings/nope", "")
	require.Equal(t, http.StatusNotFound, status)
}

func TestServer_RescheduleConflict(t *testing.T) {
	s, l := newTestServer(t)

	status, _ := do(t, s, http.MethodPost, "/bookings", `{"resource":"R1","requester":"a","start":0,"end":10}`)
	require.Equal(t, http.StatusCreated, status)
	status, _ = do(t, s, http.MethodPost, "/bookings", `{"resource":"R1","requester":"b","start":20,"end":30}`)
	require.Equal(t, http.StatusCreated, status)

	status, body := do(t, s, http.MethodPatch, "/bookings/b1", `{"start":15,"end":25}`)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "b2", decode[errorResponse](t, body).Conflicts[0].ID)

	b, err := l.Get("b1")
	require.NoError(t, err)
	require.Equal(t, int64(0), b.Interval.Start())
}

func TestServer_Queries(t *testing.T) {
	s, _ := newTestServer(t)

	for _, body := range []string{
		`{"resource":"R1","requester":"a","start":0,"end":100}`,
		`{"resource":"R1","requester":"a","start":200,"end":300}`,
		`{"resource":"R2","requester":"a","start":500,"end":600}`,
	} {
		status, _ := do(t, s, http.MethodPost, "/bookings", body)
		require.Equal(t, http.StatusCreated, status)
	}

	status, body := do(t, s, http.MethodGet, "/resources", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []ledger.ResourceInfo{
		{Key: "R1", Name: "Blue room", Description: "6 seats"},
		{Key: "R2"},
	}, decode[[]ledger.ResourceInfo](t, body))

	status, body = do(t, s, http.MethodGet, "/resources/available?from=50&to=150", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []string{"R2"}, decode[[]string](t, body))

	status, body = do(t, s, http.MethodGet, "/resources/available?from=0&to=1000", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []string{}, decode[[]string](t, body))

	status, body = do(t, s, http.MethodGet, "/resources/R1/bookings?from=50&to=250", "")
	require.Equal(t, http.StatusOK, status)
	found := decode[[]ledger.Booking](t, body)
	require.Len(t, found, 2)
	require.Equal(t, "b1", found[0].ID)
	require.Equal(t, "b2", found[1].ID)

	status, body = do(t, s, http.MethodGet, "/resources/R1/check?from=100&to=200", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []ledger.Booking{}, decode[[]ledger.Booking](t, body))

	status, body = do(t, s, http.MethodGet, "/resources/R9/check?from=100&to=200", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []ledger.Booking{}, decode[[]ledger.Booking](t, body))

	status, body = do(t, s, http.MethodGet, "/resources/R1/suggest?from=0&to=400&duration=100", "")
	require.Equal(t, http.StatusOK, status)
	slots := decode[[]struct {
		Start int64 `json:"start"`
		End   int64 `json:"end"`
	}](t, body)
	require.Len(t, slots, 2)
	require.Equal(t, int64(100), slots[0].Start)
	require.Equal(t, int64(300), slots[1].Start)

	status, body = do(t, s, http.MethodGet, "/resources/R1/suggest?from=0&to=400&duration=100&max=1", "")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, decode[[]any](t, body), 1)

	status, _ = do(t, s, http.MethodGet, "/resources/R1/suggest?from=0&to=400", "")
	require.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, s, http.MethodGet, "/resources/R1/utilisation?from=0&to=400", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, map[string]any{"resource": "R1", "percent": float64(50)}, decode[map[string]any](t, body))

	status, _ = do(t, s, http.MethodGet, "/resources/R1/bookings?from=10", "")
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, s, http.MethodGet, "/resources/R1/bookings?from=abc&to=10", "")
	require.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, s, http.MethodGet, "/stats/searches", "")
	require.Equal(t, http.StatusOK, status)
	runs := decode[[]searchRunResponse](t, body)
	require.NotEmpty(t, runs)
	require.Equal(t, "propose", runs[0].Operation)
	require.Equal(t, "binary", runs[0].Strategy)

	// utilisation of R1 over [0, 400) is the last search
	last := runs[len(runs)-1]
	require.Equal(t, "query", last.Operation)
	require.Equal(t, "R1", last.Resource)
	require.Equal(t, 1, last.LinearComparisons)
	require.Equal(t, 2, last.BinaryComparisons)
}

func TestServer_Build(t *testing.T) {
	var s *server
	require.NotPanics(t, func() {
		s = newServer(Config{}, logger.NewStub(), ledger.New())
	})

	status, _ := do(t, s, http.MethodGet, "/resources", "")
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, s, http.MethodHead, "/resources", "")
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, s, http.MethodPut, "/bookings", "")
	require.NotEqual(t, http.StatusOK, status)
}

func TestConfig_withDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, defaultAddr, cfg.HTTP.Addr)
	require.Equal(t, defaultBodyLimit, cfg.HTTP.BodyLimit)
	require.Equal(t, defaultIdleTimeout, cfg.HTTP.IdleTimeout)

	cfg = Config{HTTP: ListenConfig{Addr: ":9000", BodyLimit: 10}}.withDefaults()
	require.Equal(t, ":9000", cfg.HTTP.Addr)
	require.Equal(t, 10, cfg.HTTP.BodyLimit)
}

func TestServer_DuplicateID(t *testing.T) {
	l := ledger.New(ledger.WithIDGenerator(func() string { return "same" }))
	s := newServer(Config{}, logger.NewStub(), l)

	status, _ := do(t, s, http.MethodPost, "/bookings", `{"resource":"R1","requester":"a","start":0,"end":100}`)
	require.Equal(t, http.StatusCreated, status)

	status, body := do(t, s, http.MethodPost, "/bookings", `{"resource":"R2","requester":"a","start":0,"end":100}`)
	require.Equal(t, http.StatusConflict, status)
	require.Contains(t, decode[errorResponse](t, body).Message, "already")
}
