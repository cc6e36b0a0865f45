package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/raksha/internal/config"
	"github.com/felixgeelhaar/raksha/internal/domain"
	"github.com/felixgeelhaar/raksha/internal/lesson"
	"github.com/felixgeelhaar/raksha/internal/reward"
)

// In-memory fakes wired into a real lesson service and reward ledger, so
// handler tests exercise the full request path short of actual storage.

type fakeCatalog struct {
	courses map[string]*domain.Course
}

func (f *fakeCatalog) Course(_ context.Context, id string) (*domain.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrCourseNotFound, id)
	}
	return c, nil
}

func (f *fakeCatalog) List() []*domain.Course {
	out := make([]*domain.Course, 0, len(f.courses))
	for _, c := range f.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memProfiles struct {
	profiles map[uuid.UUID]*domain.Profile
}

func (m *memProfiles) Get(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) Save(_ context.Context, p *domain.Profile) error {
	cp := *p
	m.profiles[p.LearnerID] = &cp
	return nil
}

func (m *memProfiles) Top(_ context.Context, limit int) ([]*domain.Profile, error) {
	out := make([]*domain.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].XP != out[j].XP {
			return out[i].XP > out[j].XP
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type progressKey struct {
	learner uuid.UUID
	course  string
}

type memProgress struct {
	records map[progressKey]*domain.CourseProgress
}

func (m *memProgress) Get(_ context.Context, learnerID uuid.UUID, courseID string) (*domain.CourseProgress, error) {
	p, ok := m.records[progressKey{learnerID, courseID}]
	if !ok {
		return nil, domain.ErrProgressNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProgress) Upsert(_ context.Context, p *domain.CourseProgress) error {
	cp := *p
	m.records[progressKey{p.LearnerID, p.CourseID}] = &cp
	return nil
}

func (m *memProgress) ByLearner(_ context.Context, learnerID uuid.UUID) ([]*domain.CourseProgress, error) {
	var out []*domain.CourseProgress
	for k, p := range m.records {
		if k.learner == learnerID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memLog struct {
	seen map[domain.CompletionKey]bool
}

func newMemLog() *memLog {
	return &memLog{seen: make(map[domain.CompletionKey]bool)}
}

func (m *memLog) Seen(_ context.Context, key domain.CompletionKey) (bool, error) {
	return m.seen[key], nil
}

func (m *memLog) Record(_ context.Context, key domain.CompletionKey, _ time.Time) error {
	m.seen[key] = true
	return nil
}

type memBadges struct {
	earned map[uuid.UUID][]domain.EarnedBadge
}

func (m *memBadges) Held(_ context.Context, learnerID uuid.UUID) (map[string]bool, error) {
	held := make(map[string]bool)
	for _, e := range m.earned[learnerID] {
		held[e.BadgeID] = true
	}
	return held, nil
}

func (m *memBadges) Award(_ context.Context, e domain.EarnedBadge) error {
	m.earned[e.LearnerID] = append(m.earned[e.LearnerID], e)
	return nil
}

func (m *memBadges) ByLearner(_ context.Context, learnerID uuid.UUID) ([]domain.EarnedBadge, error) {
	return m.earned[learnerID], nil
}

func testCourse() *domain.Course {
	return &domain.Course{
		ID:          "safe-upi-payments",
		Title:       "Safe UPI Payments",
		Description: "Spot payment scams before they cost you.",
		Difficulty:  domain.DifficultyBeginner,
		Icon:        "smartphone",
		XPPerLesson: 50,
		Lessons: []domain.Lesson{
			{
				ID:     "safe-upi-payments/lesson-1",
				Number: 1,
				Title:  "Risky or safe?",
				Story:  "Asha gets three payment requests.",
				Exercise: domain.Exercise{
					Title:       "Sort the requests",
					Instruction: "Drag each request into a column.",
					Body: &domain.CategorizationExercise{
						Categories: []string{"risky", "safe"},
						Items: []domain.CategorizationItem{
							{ID: "qr", Text: "QR code to receive money", CorrectCategory: "risky"},
							{ID: "pin", Text: "PIN entered on your own device", CorrectCategory: "safe"},
						},
					},
				},
			},
			{
				ID:     "safe-upi-payments/lesson-2",
				Number: 2,
				Title:  "Split the bill",
				Exercise: domain.Exercise{
					Title:       "What does each person pay?",
					Instruction: "Type the amount.",
					Body: &domain.NumericAnswerExercise{
						TotalAmount:      500,
						ParticipantCount: 4,
						CorrectAnswer:    125,
					},
				},
			},
			{
				ID:     "safe-upi-payments/lesson-3",
				Number: 3,
				Title:  "The callback",
				Exercise: domain.Exercise{
					Title:       "What do you do?",
					Instruction: "Pick one.",
					Body: &domain.SingleChoiceExercise{
						Options: []domain.ChoiceOption{
							{ID: "share", Text: "Share the PIN"},
							{ID: "hangup", Text: "Hang up", Correct: true},
						},
					},
				},
			},
		},
	}
}

type fixture struct {
	srv      *Server
	profiles *memProfiles
	learner  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := &fakeCatalog{courses: map[string]*domain.Course{}}
	course := testCourse()
	catalog.courses[course.ID] = course

	profiles := &memProfiles{profiles: make(map[uuid.UUID]*domain.Profile)}
	progress := &memProgress{records: make(map[progressKey]*domain.CourseProgress)}
	log := newMemLog()
	badges := &memBadges{earned: make(map[uuid.UUID][]domain.EarnedBadge)}

	ledger := reward.NewLedger(profiles, progress, log, badges, catalog)
	lessons := lesson.NewService(lesson.NewStore(), catalog, ledger)

	learner := uuid.New()
	_ = profiles.Save(context.Background(), domain.NewProfile(learner, "asha"))

	cfg := &config.Config{Port: 8080, StorageBackend: config.StorageSQLite, LeaderboardSize: 10}
	srv := NewServer(cfg, Services{
		Catalog:  catalog,
		Lessons:  lessons,
		Profiles: profiles,
		Progress: progress,
		Badges:   badges,
	})

	return &fixture{srv: srv, profiles: profiles, learner: learner}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
	return out
}

func (f *fixture) enter(t *testing.T, lessonNumber int) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/v1/visits", map[string]interface{}{
		"learner_id":    f.learner.String(),
		"course_id":     "safe-upi-payments",
		"lesson_number": lessonNumber,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("enter lesson %d: status %d: %s", lessonNumber, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	visit := body["visit"].(map[string]interface{})
	return visit["id"].(string)
}

func TestHealthAndStatus(t *testing.T) {
	f := newFixture(t)

	if rec := f.do(t, http.MethodGet, "/v1/health", nil); rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/v1/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["courses"].(float64) != 1 {
		t.Errorf("courses = %v", body["courses"])
	}
}

func TestListAndGetCourses(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/courses", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list courses: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	courses := body["courses"].([]interface{})
	if len(courses) != 1 {
		t.Fatalf("got %d courses", len(courses))
	}

	rec = f.do(t, http.MethodGet, "/v1/courses/safe-upi-payments", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get course: %d", rec.Code)
	}
	detail := decodeBody(t, rec)
	if lessons := detail["lessons"].([]interface{}); len(lessons) != 3 {
		t.Errorf("got %d lessons", len(lessons))
	}

	if rec := f.do(t, http.MethodGet, "/v1/courses/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing course status = %d", rec.Code)
	}
}

func TestLessonViewHidesAnswers(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/courses/safe-upi-payments/lessons/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get lesson: %d", rec.Code)
	}
	raw := rec.Body.String()
	for _, leak := range []string{"correct_category", "CorrectCategory", "risky\",\"correct"} {
		if bytes.Contains([]byte(raw), []byte(leak)) {
			t.Errorf("lesson view leaks %q:\n%s", leak, raw)
		}
	}

	body := decodeBody(t, rec)
	ex := body["exercise"].(map[string]interface{})
	items := ex["items"].([]interface{})
	for _, it := range items {
		m := it.(map[string]interface{})
		if len(m) != 2 {
			t.Errorf("item carries extra fields: %v", m)
		}
	}

	// The numeric lesson must not expose the expected value.
	rec = f.do(t, http.MethodGet, "/v1/courses/safe-upi-payments/lessons/2", nil)
	if bytes.Contains(rec.Body.Bytes(), []byte("125")) {
		t.Errorf("numeric lesson leaks the answer:\n%s", rec.Body.String())
	}
}

func TestCategorizationFlow(t *testing.T) {
	f := newFixture(t)
	visitID := f.enter(t, 1)

	rec := f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/assign", map[string]string{
		"item_id": "qr", "category": "safe",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["correct"].(bool) {
		t.Error("wrong placement reported correct")
	}

	f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/assign", map[string]string{
		"item_id": "qr", "category": "risky",
	})
	rec = f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/assign", map[string]string{
		"item_id": "pin", "category": "safe",
	})
	body = decodeBody(t, rec)
	if !body["just_completed"].(bool) {
		t.Fatalf("final assign did not complete: %v", body)
	}

	award := body["award"].(map[string]interface{})
	if award["xp_awarded"].(float64) != 50 {
		t.Errorf("xp_awarded = %v", award["xp_awarded"])
	}
	profile := award["profile"].(map[string]interface{})
	if profile["xp"].(float64) != 50 || profile["rank"].(string) != "Bronze" {
		t.Errorf("profile after award = %v", profile)
	}
	badges := award["badges"].([]interface{})
	if len(badges) != 1 {
		t.Fatalf("badges = %v", badges)
	}
	if badges[0].(map[string]interface{})["id"].(string) != "first-steps" {
		t.Errorf("badge = %v", badges[0])
	}
}

func TestNumericFlow(t *testing.T) {
	f := newFixture(t)
	visitID := f.enter(t, 2)

	f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/input", map[string]string{"value": "100"})
	rec := f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/check", nil)
	body := decodeBody(t, rec)
	if body["just_completed"].(bool) {
		t.Fatal("wrong answer completed the lesson")
	}
	hint, _ := body["hint"].(string)
	if hint == "" {
		t.Error("incorrect check carried no hint")
	}
	if bytes.Contains([]byte(hint), []byte("125")) {
		t.Errorf("hint leaks the answer: %q", hint)
	}

	f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/input", map[string]string{"value": "125"})
	rec = f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/check", nil)
	body = decodeBody(t, rec)
	if !body["just_completed"].(bool) {
		t.Fatalf("correct answer did not complete: %v", body)
	}
}

func TestAdvanceGate(t *testing.T) {
	f := newFixture(t)
	visitID := f.enter(t, 3)

	if rec := f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/advance", nil); rec.Code != http.StatusConflict {
		t.Errorf("advance before completion = %d", rec.Code)
	}

	f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/option", map[string]string{"option_id": "hangup"})
	f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/check", nil)

	rec := f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/advance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("advance: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["action"].(string) != lesson.ActionCompleteCourse {
		t.Errorf("action = %v", body["action"])
	}
}

func TestWrongExerciseOperation(t *testing.T) {
	f := newFixture(t)
	visitID := f.enter(t, 1)

	rec := f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/input", map[string]string{"value": "5"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("input on categorization = %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/choice", map[string]string{
		"scenario_id": "x", "side": "C",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid side = %d", rec.Code)
	}
}

func TestEnterRequiresProfile(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/visits", map[string]interface{}{
		"learner_id":    uuid.New().String(),
		"course_id":     "safe-upi-payments",
		"lesson_number": 1,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("enter without profile = %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/v1/visits", map[string]interface{}{
		"learner_id":    "not-a-uuid",
		"course_id":     "safe-upi-payments",
		"lesson_number": 1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad learner id = %d", rec.Code)
	}
}

func TestProfileLifecycle(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/profiles", map[string]string{"username": "ravi"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create profile: %d", rec.Code)
	}
	created := decodeBody(t, rec)
	id := created["learner_id"].(string)
	if created["level"].(float64) != 1 || created["rank"].(string) != "Bronze" {
		t.Errorf("fresh profile = %v", created)
	}

	rec = f.do(t, http.MethodGet, "/v1/profiles/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get profile: %d", rec.Code)
	}

	if rec := f.do(t, http.MethodPost, "/v1/profiles", map[string]string{}); rec.Code != http.StatusBadRequest {
		t.Errorf("empty username = %d", rec.Code)
	}
}

func TestProgressAndBadgesEndpoints(t *testing.T) {
	f := newFixture(t)
	visitID := f.enter(t, 1)
	f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/assign", map[string]string{"item_id": "qr", "category": "risky"})
	f.do(t, http.MethodPost, "/v1/visits/"+visitID+"/assign", map[string]string{"item_id": "pin", "category": "safe"})

	rec := f.do(t, http.MethodGet, "/v1/profiles/"+f.learner.String()+"/progress", nil)
	body := decodeBody(t, rec)
	records := body["progress"].([]interface{})
	if len(records) != 1 {
		t.Fatalf("progress records = %v", records)
	}
	p := records[0].(map[string]interface{})
	if p["completed_lessons"].(float64) != 1 || p["total_lessons"].(float64) != 3 {
		t.Errorf("progress = %v", p)
	}

	rec = f.do(t, http.MethodGet, "/v1/profiles/"+f.learner.String()+"/badges", nil)
	body = decodeBody(t, rec)
	if badges := body["badges"].([]interface{}); len(badges) != 1 {
		t.Errorf("badges = %v", badges)
	}
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rich := domain.NewProfile(uuid.New(), "meera")
	rich.ApplyAward(600)
	_ = f.profiles.Save(ctx, rich)

	rec := f.do(t, http.MethodGet, "/v1/leaderboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	entries := body["leaderboard"].([]interface{})
	if len(entries) != 2 {
		t.Fatalf("entries = %v", entries)
	}
	first := entries[0].(map[string]interface{})
	if first["username"].(string) != "meera" || first["position"].(float64) != 1 {
		t.Errorf("first entry = %v", first)
	}
	if first["rank"].(string) != string(domain.RankSilver) {
		t.Errorf("rank = %v", first["rank"])
	}
}

func TestBadgeCatalog(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/badges", nil)
	body := decodeBody(t, rec)
	if badges := body["badges"].([]interface{}); len(badges) != 4 {
		t.Errorf("catalog size = %d", len(badges))
	}
}
