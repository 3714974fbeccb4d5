package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yourorg/wandermate/internal/assistant"
	"github.com/yourorg/wandermate/internal/config"
	"github.com/yourorg/wandermate/internal/export"
	"github.com/yourorg/wandermate/internal/store"
	"github.com/yourorg/wandermate/pkg/types"
)

const sampleItinerary = "Day 1: Arrival\nMorning: Settle in\n* Check into hotel\nDay 2: Beaches\nAfternoon: Baga"

type fakePlanner struct {
	st   *store.SQLiteStore
	reqs []types.TripRequest
}

func (p *fakePlanner) Plan(ctx context.Context, sessionID string, req types.TripRequest) *types.PlanContext {
	p.reqs = append(p.reqs, req)
	cost := 150.0
	_ = p.st.SaveTrip(ctx, sessionID, store.TripState{
		Destination:   req.DestinationCity,
		Itinerary:     sampleItinerary,
		NumDays:       2,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
	})
	return &types.PlanContext{
		Source:          req.SourceCity,
		Destination:     req.DestinationCity,
		DepartureDate:   req.DepartureDate,
		NumDays:         2,
		OutboundFlights: []types.FlightOffer{{Airline: "AI", FlightNumber: "101", Price: "150", Currency: "INR"}},
		ReturnFlights:   []types.FlightOffer{},
		Attractions:     []types.Attraction{{Name: "Baga Beach", ImageURL: "https://via.placeholder.com/400x300?text=No+Image"}},
		Hotels:          []types.Hotel{},
		Itinerary:       sampleItinerary,
		EstimatedCost:   &cost,
	}
}

type echoModel struct {
	err error
}

func (m echoModel) Generate(_ context.Context, prompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "Try the beaches.", nil
}

func newTestServer(t *testing.T, model echoModel) (*Server, *store.SQLiteStore, *fakePlanner) {
	t.Helper()

	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.Server.AllowedOrigins = []string{"https://app.example.com"}

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "wandermate.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	planner := &fakePlanner{st: st}
	chat := &assistant.Assistant{Model: model, Sessions: st}
	srv, err := New(cfg, st, planner, chat, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, st, planner
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie set", SessionCookie)
	return nil
}

func postJSON(srv *Server, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServerIndexHTML(t *testing.T) {
	srv, _, _ := newTestServer(t, echoModel{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("WanderMate")) {
		t.Fatalf("expected body to contain WanderMate")
	}
}

func TestServerFormPlanRendersItinerary(t *testing.T) {
	srv, _, planner := newTestServer(t, echoModel{})

	form := url.Values{}
	form.Set("source_city", "Delhi")
	form.Set("destination_city", "Goa")
	form.Set("departure_date", "2025-01-10")
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"Day 1: Arrival", "Check into hotel", "150.00", "Baga Beach", "/api/export/pdf"} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
	if len(planner.reqs) != 1 || planner.reqs[0].DestinationCity != "Goa" {
		t.Fatalf("planner got %+v", planner.reqs)
	}
	sessionCookie(t, rec)
}

func TestServerPlanAPISetsCookieAndReusesSession(t *testing.T) {
	srv, st, _ := newTestServer(t, echoModel{})

	rec := postJSON(srv, "/api/plan", types.TripRequest{SourceCity: "Delhi", DestinationCity: "Goa"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	cookie := sessionCookie(t, rec)
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie attributes = %+v", cookie)
	}
	var pc types.PlanContext
	if err := json.NewDecoder(rec.Body).Decode(&pc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pc.EstimatedCost == nil || *pc.EstimatedCost != 150 {
		t.Fatalf("estimated cost = %v", pc.EstimatedCost)
	}

	again := postJSON(srv, "/api/plan", types.TripRequest{SourceCity: "Delhi", DestinationCity: "Jaipur"}, cookie)
	if len(again.Result().Cookies()) != 0 {
		t.Fatalf("known session should not get a new cookie")
	}
	sess, err := st.GetSession(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess.Destination != "Jaipur" {
		t.Fatalf("session destination = %q", sess.Destination)
	}
}

func TestServerPlanAPIValidation(t *testing.T) {
	srv, _, planner := newTestServer(t, echoModel{})

	rec := postJSON(srv, "/api/plan", types.TripRequest{SourceCity: "Delhi"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(planner.reqs) != 0 {
		t.Fatalf("planner called on invalid request")
	}
}

func TestServerExportPDF(t *testing.T) {
	srv, _, _ := newTestServer(t, echoModel{})

	req := httptest.NewRequest(http.MethodGet, "/api/export/pdf", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status without session = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No itinerary found. Please generate an itinerary first.") {
		t.Fatalf("body = %q", rec.Body.String())
	}

	plan := postJSON(srv, "/api/plan", types.TripRequest{SourceCity: "Delhi", DestinationCity: "Goa"}, nil)
	cookie := sessionCookie(t, plan)

	req = httptest.NewRequest(http.MethodGet, "/api/export/pdf", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="Goa_2Day_Itinerary.pdf"` {
		t.Fatalf("content disposition = %q", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("body is not a PDF")
	}
}

func TestServerExportPDFRenderFailure(t *testing.T) {
	srv, _, _ := newTestServer(t, echoModel{})
	plan := postJSON(srv, "/api/plan", types.TripRequest{SourceCity: "Delhi", DestinationCity: "Goa"}, nil)
	cookie := sessionCookie(t, plan)

	renderPDF = func(w io.Writer, _ export.Meta, _ []types.ParsedDay) error {
		_, _ = w.Write([]byte("%PDF-partial"))
		return errors.New("font missing")
	}
	defer func() { renderPDF = export.RenderPDF }()

	req := httptest.NewRequest(http.MethodGet, "/api/export/pdf", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); strings.HasPrefix(ct, "application/pdf") {
		t.Fatalf("content type = %q", ct)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Fatalf("unexpected attachment header")
	}
	if strings.Contains(rec.Body.String(), "%PDF") {
		t.Fatalf("partial pdf leaked: %q", rec.Body.String())
	}
}

func TestServerChat(t *testing.T) {
	srv, st, _ := newTestServer(t, echoModel{})

	rec := postJSON(srv, "/api/chat", map[string]string{"message": "  "}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank message status = %d", rec.Code)
	}

	rec = postJSON(srv, "/api/chat", map[string]string{"message": "Where should I eat?"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Response string `json:"response"`
		Success  bool   `json:"success"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Response != "Try the beaches." {
		t.Fatalf("unexpected response %+v", resp)
	}
	cookie := sessionCookie(t, rec)

	clear := postJSON(srv, "/api/chat/clear", nil, cookie)
	if clear.Code != http.StatusOK {
		t.Fatalf("clear status = %d", clear.Code)
	}
	sess, err := st.GetSession(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(sess.ChatHistory) != 0 {
		t.Fatalf("history not cleared: %+v", sess.ChatHistory)
	}
}

func TestServerChatBackendFailure(t *testing.T) {
	srv, _, _ := newTestServer(t, echoModel{err: errors.New("quota")})

	rec := postJSON(srv, "/api/chat", map[string]string{"message": "hello"}, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "Sorry, I encountered an error. Please try again." || resp["success"] != false {
		t.Fatalf("unexpected body %+v", resp)
	}
}

func TestServerCORS(t *testing.T) {
	srv, _, _ := newTestServer(t, echoModel{})

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestServerHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, echoModel{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}
