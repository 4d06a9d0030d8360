package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/erazemk/izgubljeno/internal/auth"
	"github.com/erazemk/izgubljeno/internal/db"
	"github.com/erazemk/izgubljeno/internal/lifecycle"
	"github.com/erazemk/izgubljeno/internal/model"
	"github.com/erazemk/izgubljeno/internal/scheduler"
	"github.com/erazemk/izgubljeno/internal/service"
	"github.com/erazemk/izgubljeno/internal/store"
)

const (
	testJWTSecret = "test-secret"
	testPassword  = "password123"
)

type testServer struct {
	*httptest.Server
	svc   *service.Service
	users map[string]*model.User
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := service.New(database, lifecycle.DefaultRetention())
	svc.Logger = quiet
	sched, err := scheduler.New(svc, database, quiet, scheduler.Config{})
	if err != nil {
		t.Fatalf("scheduler.New: %v", err)
	}

	router := NewRouter(Deps{
		DB:          database,
		JWTSecret:   testJWTSecret,
		TokenExpiry: time.Hour,
		Service:     svc,
		Scheduler:   sched,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx := context.Background()
	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatal(err)
	}
	users := map[string]*model.User{}
	for name, role := range map[string]string{
		"admin": model.RoleAdmin,
		"marta": model.RoleTeacher,
		"ana":   model.RoleStudent,
		"bor":   model.RoleStudent,
	} {
		u, err := store.CreateUser(ctx, database, name, hash, role)
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		users[name] = u
	}

	return &testServer{Server: server, svc: svc, users: users}
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": testPassword})
	resp, err := http.Post(s.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return loginResp.Token
}

// do sends a JSON request and decodes the response into out, if non-nil.
func (s *testServer) do(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (s *testServer) createPlace(t *testing.T, token string) model.Place {
	t.Helper()
	var place model.Place
	if code := s.do(t, "POST", "/api/places", token, map[string]string{"name": "Gym"}, &place); code != http.StatusCreated {
		t.Fatalf("create place: expected 201, got %d", code)
	}
	return place
}

func (s *testServer) registerItem(t *testing.T, token string, placeID int64, foundAt time.Time) model.Item {
	t.Helper()
	var item model.Item
	code := s.do(t, "POST", "/api/items", token, map[string]any{
		"name":     "Phone",
		"category": "electronics",
		"found_at": foundAt,
		"place_id": placeID,
	}, &item)
	if code != http.StatusCreated {
		t.Fatalf("register item: expected 201, got %d", code)
	}
	return item
}

func TestLoginEndpoint(t *testing.T) {
	s := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(s.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	token := s.login(t, "ana")
	var me model.User
	if code := s.do(t, "GET", "/api/auth/me", token, nil, &me); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if me.Username != "ana" || me.Role != model.RoleStudent {
		t.Errorf("unexpected user %+v", me)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	s := setupTestServer(t)

	if code := s.do(t, "GET", "/api/items", "", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", code)
	}
	if code := s.do(t, "GET", "/api/items", "garbage", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid token, got %d", code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	s := setupTestServer(t)
	token := s.login(t, "ana")

	if code := s.do(t, "POST", "/api/auth/logout", token, nil, nil); code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", code)
	}
	if code := s.do(t, "GET", "/api/items", token, nil, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", code)
	}
}

func TestRoleBasedAccess(t *testing.T) {
	s := setupTestServer(t)
	student := s.login(t, "ana")
	teacher := s.login(t, "marta")

	if code := s.do(t, "GET", "/api/users", student, nil, nil); code != http.StatusForbidden {
		t.Errorf("expected 403 for student listing users, got %d", code)
	}
	if code := s.do(t, "POST", "/api/places", teacher, map[string]string{"name": "Hall"}, nil); code != http.StatusForbidden {
		t.Errorf("expected 403 for teacher creating place, got %d", code)
	}
	if code := s.do(t, "GET", "/api/claims", teacher, nil, nil); code != http.StatusForbidden {
		t.Errorf("expected 403 for teacher listing claims, got %d", code)
	}
	if code := s.do(t, "POST", "/api/scheduler/run", teacher, nil, nil); code != http.StatusForbidden {
		t.Errorf("expected 403 for teacher running scheduler, got %d", code)
	}
}

func TestDeleteUserHoldingItems(t *testing.T) {
	s := setupTestServer(t)
	admin := s.login(t, "admin")

	var second model.User
	body := map[string]string{"username": "jure", "password": "password123", "role": "admin"}
	if code := s.do(t, "POST", "/api/users", admin, body, &second); code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d", code)
	}
	holder := s.login(t, "jure")

	place := s.createPlace(t, admin)
	item := s.registerItem(t, holder, place.ID, time.Now().Add(-time.Hour))
	if code := s.do(t, "POST", "/api/items/"+item.ID+"/approval", holder, map[string]string{"decision": "approved"}, nil); code != http.StatusOK {
		t.Fatalf("approval: expected 200, got %d", code)
	}

	userPath := "/api/users/" + strconv.FormatInt(second.ID, 10)
	if code := s.do(t, "DELETE", userPath, admin, nil, nil); code != http.StatusConflict {
		t.Errorf("expected 409 deleting a holder of open items, got %d", code)
	}

	give := map[string]int64{"receiver_id": s.users["ana"].ID}
	if code := s.do(t, "POST", "/api/items/"+item.ID+"/give", admin, give, nil); code != http.StatusOK {
		t.Fatalf("give: expected 200, got %d", code)
	}
	if code := s.do(t, "DELETE", userPath, admin, nil, nil); code != http.StatusOK {
		t.Errorf("expected 200 once the item is given, got %d", code)
	}
}

func TestItemWorkflow(t *testing.T) {
	s := setupTestServer(t)
	admin := s.login(t, "admin")
	student := s.login(t, "ana")

	place := s.createPlace(t, admin)
	item := s.registerItem(t, student, place.ID, time.Now().Add(-time.Hour))
	if item.Status != model.StatusLost || item.ApprovalStatus != model.ApprovalPending {
		t.Fatalf("unexpected new item state %s/%s", item.Status, item.ApprovalStatus)
	}

	// Future found_at is rejected.
	code := s.do(t, "POST", "/api/items", student, map[string]any{
		"name": "Pen", "category": "stationery", "found_at": time.Now().Add(time.Hour), "place_id": place.ID,
	}, nil)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400 for future found_at, got %d", code)
	}

	approval := map[string]string{"decision": "approved"}
	if code := s.do(t, "POST", "/api/items/"+item.ID+"/approval", student, approval, nil); code != http.StatusForbidden {
		t.Errorf("expected 403 for student approval, got %d", code)
	}
	if code := s.do(t, "POST", "/api/items/"+item.ID+"/approval", admin, approval, nil); code != http.StatusOK {
		t.Fatalf("approval: expected 200, got %d", code)
	}
	if code := s.do(t, "POST", "/api/items/"+item.ID+"/approval", admin, approval, nil); code != http.StatusConflict {
		t.Errorf("expected 409 for second approval, got %d", code)
	}

	claim := map[string]string{"reason": "it's mine"}
	if code := s.do(t, "POST", "/api/items/"+item.ID+"/claims", student, claim, nil); code != http.StatusCreated {
		t.Fatalf("claim: expected 201, got %d", code)
	}
	if code := s.do(t, "POST", "/api/items/"+item.ID+"/claims", student, claim, nil); code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate claim, got %d", code)
	}

	var count map[string]int
	if code := s.do(t, "GET", "/api/claims/count", admin, nil, &count); code != http.StatusOK || count["pending"] != 1 {
		t.Errorf("expected 1 pending claim, got %d %v", code, count)
	}

	var given giveResponse
	give := map[string]int64{"receiver_id": s.users["ana"].ID}
	if code := s.do(t, "POST", "/api/items/"+item.ID+"/give", admin, give, &given); code != http.StatusOK {
		t.Fatalf("give: expected 200, got %d", code)
	}
	if given.Item.Status != model.StatusGiven || given.Give.ReceiverID != s.users["ana"].ID {
		t.Errorf("unexpected give response %+v %+v", given.Item, given.Give)
	}
	give["receiver_id"] = s.users["bor"].ID
	if code := s.do(t, "POST", "/api/items/"+item.ID+"/give", admin, give, nil); code != http.StatusConflict {
		t.Errorf("expected 409 for second give, got %d", code)
	}

	if code := s.do(t, "GET", "/api/items/missing", admin, nil, nil); code != http.StatusNotFound {
		t.Errorf("expected 404 for missing item, got %d", code)
	}
}

func TestDisposalHoldWorkflow(t *testing.T) {
	s := setupTestServer(t)
	admin := s.login(t, "admin")
	teacher := s.login(t, "marta")
	student := s.login(t, "ana")

	place := s.createPlace(t, admin)
	item := s.registerItem(t, student, place.ID, time.Now().AddDate(0, -7, 0))

	hold := map[string]any{"reason": "owner is abroad", "extension_days": 10}
	path := "/api/items/" + item.ID + "/disposal-holds"
	if code := s.do(t, "POST", path, teacher, hold, nil); code != http.StatusConflict {
		t.Errorf("expected 409 for lost item, got %d", code)
	}

	marked, err := s.svc.MarkToBeDiscarded(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("MarkToBeDiscarded: %v", err)
	}

	if code := s.do(t, "POST", path, student, hold, nil); code != http.StatusForbidden {
		t.Errorf("expected 403 for student hold, got %d", code)
	}
	var created model.DisposalHold
	if code := s.do(t, "POST", path, teacher, hold, &created); code != http.StatusCreated {
		t.Fatalf("submit hold: expected 201, got %d", code)
	}

	today := time.Now().UTC().Format(time.DateOnly)
	var latest model.DisposalHold
	code := s.do(t, "GET", "/api/items/"+item.ID+"/disposal-hold?from="+today+"&to="+today, teacher, nil, &latest)
	if code != http.StatusOK || latest.ID != created.ID {
		t.Fatalf("expected hold %d, got %d (%d)", created.ID, latest.ID, code)
	}
	if code := s.do(t, "GET", "/api/items/"+item.ID+"/disposal-hold?from="+today, teacher, nil, nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for half range, got %d", code)
	}

	var extended itemResponse
	apply := path + "/" + strconv.FormatInt(created.ID, 10) + "/apply"
	if code := s.do(t, "POST", apply, teacher, nil, nil); code != http.StatusForbidden {
		t.Errorf("expected 403 for teacher apply, got %d", code)
	}
	if code := s.do(t, "POST", apply, admin, nil, &extended); code != http.StatusOK {
		t.Fatalf("apply: expected 200, got %d", code)
	}
	want := marked.DiscardAt.AddDate(0, 0, 10)
	if extended.PendingDeadline == nil || !extended.PendingDeadline.Equal(want) {
		t.Errorf("expected deadline %v, got %v", want, extended.PendingDeadline)
	}
}

func TestRewardEndpoint(t *testing.T) {
	s := setupTestServer(t)
	admin := s.login(t, "admin")
	teacher := s.login(t, "marta")
	student := s.login(t, "ana")

	place := s.createPlace(t, admin)
	item := s.registerItem(t, student, place.ID, time.Now().Add(-time.Hour))
	reward := map[string]int64{"student_id": s.users["ana"].ID}

	if code := s.do(t, "POST", "/api/items/"+item.ID+"/reward", admin, reward, nil); code != http.StatusForbidden {
		t.Errorf("expected 403 for admin reward, got %d", code)
	}
	if code := s.do(t, "POST", "/api/items/"+item.ID+"/reward", teacher, reward, nil); code != http.StatusCreated {
		t.Fatalf("reward: expected 201, got %d", code)
	}
	if code := s.do(t, "POST", "/api/items/"+item.ID+"/reward", teacher, reward, nil); code != http.StatusConflict {
		t.Errorf("expected 409 for second reward, got %d", code)
	}

	var rewards []model.Reward
	if code := s.do(t, "GET", "/api/rewards", student, nil, &rewards); code != http.StatusOK || len(rewards) != 1 {
		t.Errorf("expected own reward, got %d %v", code, rewards)
	}
}

func TestSchedulerEndpoint(t *testing.T) {
	s := setupTestServer(t)
	admin := s.login(t, "admin")
	student := s.login(t, "ana")

	place := s.createPlace(t, admin)
	// Inside the grace window, a week before its deadline.
	graced := s.registerItem(t, student, place.ID, time.Now().AddDate(0, -6, 7))
	// Past its deadline: marked and discarded in the same run.
	expired := s.registerItem(t, student, place.ID, time.Now().AddDate(0, -7, 0))

	var report scheduler.Report
	if code := s.do(t, "POST", "/api/scheduler/run", admin, nil, &report); code != http.StatusOK {
		t.Fatalf("run: expected 200, got %d", code)
	}
	if report.Marked.Processed != 2 || report.Discarded.Processed != 1 {
		t.Errorf("expected 2 marked and 1 discarded, got %+v", report)
	}

	for _, tt := range []struct {
		id   string
		want model.Status
	}{
		{graced.ID, model.StatusToBeDiscarded},
		{expired.ID, model.StatusDiscarded},
	} {
		var got model.Item
		s.do(t, "GET", "/api/items/"+tt.id, admin, nil, &got)
		if got.Status != tt.want {
			t.Errorf("item %s: expected %q, got %q", tt.id, tt.want, got.Status)
		}
	}

	var status schedulerStatus
	if code := s.do(t, "GET", "/api/scheduler", admin, nil, &status); code != http.StatusOK {
		t.Fatalf("status: expected 200, got %d", code)
	}
	if status.LastRun == nil || status.NextRun.IsZero() {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{lifecycle.Validationf("bad"), http.StatusBadRequest},
		{lifecycle.NotFoundf("gone"), http.StatusNotFound},
		{lifecycle.Conflictf("busy"), http.StatusConflict},
		{lifecycle.Forbiddenf("no"), http.StatusForbidden},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		serviceError(rec, httptest.NewRequest("GET", "/", nil), tt.err)
		if rec.Code != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, rec.Code)
		}
	}
}
