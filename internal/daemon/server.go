package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/raksha/internal/config"
	"github.com/felixgeelhaar/raksha/internal/domain"
	"github.com/felixgeelhaar/raksha/internal/lesson"
)

// CourseCatalog serves the loaded course content.
type CourseCatalog interface {
	Course(ctx context.Context, courseID string) (*domain.Course, error)
	List() []*domain.Course
}

// ProfileDirectory is the slice of the profile store the API serves.
type ProfileDirectory interface {
	Get(ctx context.Context, learnerID uuid.UUID) (*domain.Profile, error)
	Save(ctx context.Context, p *domain.Profile) error
	Top(ctx context.Context, limit int) ([]*domain.Profile, error)
}

// ProgressDirectory lists a learner's per-course progress records.
type ProgressDirectory interface {
	ByLearner(ctx context.Context, learnerID uuid.UUID) ([]*domain.CourseProgress, error)
}

// BadgeDirectory lists a learner's earned badges.
type BadgeDirectory interface {
	ByLearner(ctx context.Context, learnerID uuid.UUID) ([]domain.EarnedBadge, error)
}

// Services holds the wired-up services the server exposes.
type Services struct {
	Catalog  CourseCatalog
	Lessons  *lesson.Service
	Profiles ProfileDirectory
	Progress ProgressDirectory
	Badges   BadgeDirectory
}

// Server is the raksha daemon HTTP server.
type Server struct {
	cfg    *config.Config
	server *http.Server
	router *http.ServeMux

	catalog  CourseCatalog
	lessons  *lesson.Service
	profiles ProfileDirectory
	progress ProgressDirectory
	badges   BadgeDirectory
}

// NewServer creates a new daemon server.
func NewServer(cfg *config.Config, svcs Services) *Server {
	s := &Server{
		cfg:      cfg,
		router:   http.NewServeMux(),
		catalog:  svcs.Catalog,
		lessons:  svcs.Lessons,
		profiles: svcs.Profiles,
		progress: svcs.Progress,
		badges:   svcs.Badges,
	}

	s.setupRoutes()

	handler := recoveryMiddleware(correlationIDMiddleware(loggingMiddleware(s.router)))
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health & status
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Course catalog
	s.router.HandleFunc("GET /v1/courses", s.handleListCourses)
	s.router.HandleFunc("GET /v1/courses/{id}", s.handleGetCourse)
	s.router.HandleFunc("GET /v1/courses/{id}/lessons/{number}", s.handleGetLesson)

	// Lesson visits
	s.router.HandleFunc("POST /v1/visits", s.handleEnterVisit)
	s.router.HandleFunc("GET /v1/visits/{id}", s.handleGetVisit)
	s.router.HandleFunc("POST /v1/visits/{id}/assign", s.handleAssign)
	s.router.HandleFunc("POST /v1/visits/{id}/unassign", s.handleUnassign)
	s.router.HandleFunc("POST /v1/visits/{id}/toggle", s.handleToggle)
	s.router.HandleFunc("POST /v1/visits/{id}/choice", s.handleChoice)
	s.router.HandleFunc("POST /v1/visits/{id}/input", s.handleInput)
	s.router.HandleFunc("POST /v1/visits/{id}/option", s.handleOption)
	s.router.HandleFunc("POST /v1/visits/{id}/check", s.handleCheck)
	s.router.HandleFunc("POST /v1/visits/{id}/advance", s.handleAdvance)

	// Profiles & rewards
	s.router.HandleFunc("POST /v1/profiles", s.handleCreateProfile)
	s.router.HandleFunc("GET /v1/profiles/{id}", s.handleGetProfile)
	s.router.HandleFunc("GET /v1/profiles/{id}/progress", s.handleGetProgress)
	s.router.HandleFunc("GET /v1/profiles/{id}/badges", s.handleGetBadges)
	s.router.HandleFunc("GET /v1/badges", s.handleBadgeCatalog)
	s.router.HandleFunc("GET /v1/leaderboard", s.handleLeaderboard)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	slog.Info("starting raksha daemon",
		"addr", s.server.Addr,
		"courses", len(s.catalog.List()),
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")
	return s.server.Shutdown(ctx)
}

// Handler returns the middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Helper methods

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	s.jsonResponse(w, status, response)
}

// serviceError translates domain sentinels into HTTP responses. Malformed
// lesson data maps to 422: the request was fine, the content cannot be
// evaluated.
func (s *Server) serviceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrCourseNotFound):
		s.jsonError(w, http.StatusNotFound, "course not found", err)
	case errors.Is(err, domain.ErrLessonNotFound):
		s.jsonError(w, http.StatusNotFound, "lesson not found", err)
	case errors.Is(err, domain.ErrVisitNotFound):
		s.jsonError(w, http.StatusNotFound, "visit not found", err)
	case errors.Is(err, domain.ErrProfileNotFound):
		s.jsonError(w, http.StatusNotFound, "profile not found", err)
	case errors.Is(err, lesson.ErrWrongExercise):
		s.jsonError(w, http.StatusBadRequest, "operation does not apply to this exercise", err)
	case errors.Is(err, lesson.ErrLessonNotComplete):
		s.jsonError(w, http.StatusConflict, "lesson not completed", err)
	case errors.Is(err, domain.ErrUnknownExerciseKind), errors.Is(err, domain.ErrInvalidExercise):
		s.jsonError(w, http.StatusUnprocessableEntity, "lesson cannot be evaluated", err)
	case errors.Is(err, domain.ErrInvalidInput):
		s.jsonError(w, http.StatusBadRequest, "invalid input", err)
	default:
		s.jsonError(w, http.StatusInternalServerError, fallback, err)
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

func (s *Server) learnerID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid learner id", err)
		return uuid.Nil, false
	}
	return id, true
}
