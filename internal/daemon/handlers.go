package daemon

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/raksha/internal/domain"
)

// Health & status handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":  "running",
		"version": "0.1.0",
		"storage": s.cfg.StorageBackend,
		"courses": len(s.catalog.List()),
	})
}

// Course catalog handlers

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses := s.catalog.List()
	result := make([]map[string]interface{}, 0, len(courses))
	for _, c := range courses {
		result = append(result, courseSummaryView(c))
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"courses": result,
	})
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := s.catalog.Course(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, err, "failed to load course")
		return
	}
	s.jsonResponse(w, http.StatusOK, courseDetailView(course))
}

func (s *Server) handleGetLesson(w http.ResponseWriter, r *http.Request) {
	course, err := s.catalog.Course(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, err, "failed to load course")
		return
	}

	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid lesson number", err)
		return
	}

	lsn, err := course.Lesson(number)
	if err != nil {
		s.serviceError(w, err, "failed to load lesson")
		return
	}
	s.jsonResponse(w, http.StatusOK, lessonView(lsn))
}

// Visit handlers

func (s *Server) handleEnterVisit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LearnerID    string `json:"learner_id"`
		CourseID     string `json:"course_id"`
		LessonNumber int    `json:"lesson_number"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	learnerID, ok := s.learnerID(w, req.LearnerID)
	if !ok {
		return
	}

	// A visit needs a profile to pay into.
	if _, err := s.profiles.Get(r.Context(), learnerID); err != nil {
		s.serviceError(w, err, "failed to load profile")
		return
	}

	visit, err := s.lessons.Enter(r.Context(), learnerID, req.CourseID, req.LessonNumber)
	if err != nil {
		s.serviceError(w, err, "failed to enter lesson")
		return
	}

	course, err := s.catalog.Course(r.Context(), req.CourseID)
	if err != nil {
		s.serviceError(w, err, "failed to load course")
		return
	}
	lsn, err := course.Lesson(req.LessonNumber)
	if err != nil {
		s.serviceError(w, err, "failed to load lesson")
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]interface{}{
		"visit":  visit,
		"lesson": lessonView(lsn),
	})
}

func (s *Server) handleGetVisit(w http.ResponseWriter, r *http.Request) {
	visit, err := s.lessons.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, err, "failed to load visit")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"visit": visit,
	})
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID   string `json:"item_id"`
		Category string `json:"category"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.lessons.Assign(r.Context(), r.PathValue("id"), req.ItemID, req.Category)
	if err != nil {
		s.serviceError(w, err, "failed to assign item")
		return
	}
	s.jsonResponse(w, http.StatusOK, resultView(res))
}

func (s *Server) handleUnassign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"item_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.lessons.Unassign(r.Context(), r.PathValue("id"), req.ItemID)
	if err != nil {
		s.serviceError(w, err, "failed to unassign item")
		return
	}
	s.jsonResponse(w, http.StatusOK, resultView(res))
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID string `json:"message_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.lessons.Toggle(r.Context(), r.PathValue("id"), req.MessageID)
	if err != nil {
		s.serviceError(w, err, "failed to toggle message")
		return
	}
	s.jsonResponse(w, http.StatusOK, resultView(res))
}

func (s *Server) handleChoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
		Side       string `json:"side"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	side := domain.Side(req.Side)
	if side != domain.SideA && side != domain.SideB {
		s.jsonError(w, http.StatusBadRequest, "side must be A or B", nil)
		return
	}

	res, err := s.lessons.Choose(r.Context(), r.PathValue("id"), req.ScenarioID, side)
	if err != nil {
		s.serviceError(w, err, "failed to record choice")
		return
	}
	s.jsonResponse(w, http.StatusOK, resultView(res))
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.lessons.Input(r.Context(), r.PathValue("id"), req.Value)
	if err != nil {
		s.serviceError(w, err, "failed to record input")
		return
	}
	s.jsonResponse(w, http.StatusOK, resultView(res))
}

func (s *Server) handleOption(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OptionID string `json:"option_id"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.lessons.SelectOption(r.Context(), r.PathValue("id"), req.OptionID)
	if err != nil {
		s.serviceError(w, err, "failed to select option")
		return
	}
	s.jsonResponse(w, http.StatusOK, resultView(res))
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	res, err := s.lessons.Check(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, err, "failed to check answer")
		return
	}
	s.jsonResponse(w, http.StatusOK, resultView(res))
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	adv, err := s.lessons.Advance(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, err, "failed to advance")
		return
	}
	s.jsonResponse(w, http.StatusOK, adv)
}

// Profile & reward handlers

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Username == "" {
		s.jsonError(w, http.StatusBadRequest, "username is required", nil)
		return
	}

	profile := domain.NewProfile(uuid.New(), req.Username)
	if err := s.profiles.Save(r.Context(), profile); err != nil {
		s.serviceError(w, err, "failed to create profile")
		return
	}
	s.jsonResponse(w, http.StatusCreated, profileView(profile))
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := s.learnerID(w, r.PathValue("id"))
	if !ok {
		return
	}

	profile, err := s.profiles.Get(r.Context(), learnerID)
	if err != nil {
		s.serviceError(w, err, "failed to load profile")
		return
	}
	s.jsonResponse(w, http.StatusOK, profileView(profile))
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := s.learnerID(w, r.PathValue("id"))
	if !ok {
		return
	}

	records, err := s.progress.ByLearner(r.Context(), learnerID)
	if err != nil {
		s.serviceError(w, err, "failed to load progress")
		return
	}

	result := make([]map[string]interface{}, 0, len(records))
	for _, p := range records {
		view := progressView(p)
		if course, err := s.catalog.Course(r.Context(), p.CourseID); err == nil {
			view["total_lessons"] = course.TotalLessons()
		}
		result = append(result, view)
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"progress": result,
	})
}

func (s *Server) handleGetBadges(w http.ResponseWriter, r *http.Request) {
	learnerID, ok := s.learnerID(w, r.PathValue("id"))
	if !ok {
		return
	}

	earned, err := s.badges.ByLearner(r.Context(), learnerID)
	if err != nil {
		s.serviceError(w, err, "failed to load badges")
		return
	}

	result := make([]map[string]interface{}, 0, len(earned))
	for _, e := range earned {
		result = append(result, earnedBadgeView(e))
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"badges": result,
	})
}

func (s *Server) handleBadgeCatalog(w http.ResponseWriter, r *http.Request) {
	catalog := domain.DefaultBadges()
	result := make([]map[string]interface{}, 0, len(catalog))
	for _, b := range catalog {
		view := badgeView(b)
		view["xp_threshold"] = b.XPThreshold
		view["on_course_complete"] = b.OnCourseComplete
		result = append(result, view)
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"badges": result,
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := s.profiles.Top(r.Context(), s.cfg.LeaderboardSize)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load leaderboard", err)
		return
	}

	entries := make([]map[string]interface{}, 0, len(top))
	for i, p := range top {
		entries = append(entries, map[string]interface{}{
			"position": i + 1,
			"username": p.Username,
			"xp":       p.XP,
			"level":    p.Level,
			"rank":     p.Rank,
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"leaderboard": entries,
	})
}
