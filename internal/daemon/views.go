package daemon

import (
	"github.com/felixgeelhaar/raksha/internal/domain"
	"github.com/felixgeelhaar/raksha/internal/lesson"
	"github.com/felixgeelhaar/raksha/internal/reward"
)

// Views render domain objects for the API. Exercise views never carry the
// answer key: correct categories, target flags, and expected values stay
// server-side, and correctness only ever reaches the client as feedback on
// an answer it already gave.

func courseSummaryView(c *domain.Course) map[string]interface{} {
	return map[string]interface{}{
		"id":            c.ID,
		"title":         c.Title,
		"description":   c.Description,
		"difficulty":    c.Difficulty,
		"icon":          c.Icon,
		"xp_per_lesson": c.XPPerLesson,
		"total_lessons": c.TotalLessons(),
	}
}

func courseDetailView(c *domain.Course) map[string]interface{} {
	lessons := make([]map[string]interface{}, 0, len(c.Lessons))
	for i := range c.Lessons {
		l := &c.Lessons[i]
		lessons = append(lessons, map[string]interface{}{
			"number": l.Number,
			"title":  l.Title,
			"kind":   l.Exercise.Kind(),
		})
	}
	view := courseSummaryView(c)
	view["lessons"] = lessons
	return view
}

func lessonView(l *domain.Lesson) map[string]interface{} {
	return map[string]interface{}{
		"id":       l.ID,
		"number":   l.Number,
		"title":    l.Title,
		"story":    l.Story,
		"concept":  l.Concept,
		"exercise": exerciseView(&l.Exercise),
	}
}

func exerciseView(ex *domain.Exercise) map[string]interface{} {
	view := map[string]interface{}{
		"kind":        ex.Kind(),
		"title":       ex.Title,
		"instruction": ex.Instruction,
	}

	switch body := ex.Body.(type) {
	case *domain.CategorizationExercise:
		items := make([]map[string]string, 0, len(body.Items))
		for _, item := range body.Items {
			items = append(items, map[string]string{"id": item.ID, "text": item.Text})
		}
		view["items"] = items
		view["categories"] = body.Categories

	case *domain.SingleChoiceExercise:
		view["options"] = optionViews(body.Options)

	case *domain.MultiSelectExercise:
		messages := make([]map[string]string, 0, len(body.Messages))
		for _, msg := range body.Messages {
			messages = append(messages, map[string]string{"id": msg.ID, "text": msg.Text})
		}
		view["messages"] = messages

	case *domain.BinaryScenarioExercise:
		scenarios := make([]map[string]string, 0, len(body.Scenarios))
		for _, sc := range body.Scenarios {
			scenarios = append(scenarios, map[string]string{"id": sc.ID, "text": sc.Text})
		}
		view["scenarios"] = scenarios

	case *domain.NumericAnswerExercise:
		view["total_amount"] = body.TotalAmount
		view["participant_count"] = body.ParticipantCount

	case *domain.FreeformScenarioExercise:
		view["scenario"] = body.Scenario
		view["options"] = optionViews(body.Options)
	}

	return view
}

func optionViews(options []domain.ChoiceOption) []map[string]string {
	out := make([]map[string]string, 0, len(options))
	for _, opt := range options {
		out = append(out, map[string]string{"id": opt.ID, "text": opt.Text})
	}
	return out
}

func resultView(res *lesson.Result) map[string]interface{} {
	view := map[string]interface{}{
		"visit":          res.Visit,
		"just_completed": res.JustCompleted,
	}
	if res.Correct != nil {
		view["correct"] = *res.Correct
	}
	if res.Hint != "" {
		view["hint"] = res.Hint
	}
	if res.Award != nil {
		view["award"] = awardView(res.Award)
	}
	return view
}

func awardView(out *reward.Outcome) map[string]interface{} {
	view := map[string]interface{}{
		"duplicate":  out.Duplicate,
		"xp_awarded": out.XPAwarded,
	}
	if out.Profile != nil {
		view["profile"] = profileView(out.Profile)
	}
	if out.Progress != nil {
		view["progress"] = progressView(out.Progress)
	}
	if len(out.Badges) > 0 {
		badges := make([]map[string]interface{}, 0, len(out.Badges))
		for _, b := range out.Badges {
			badges = append(badges, badgeView(b))
		}
		view["badges"] = badges
	}
	return view
}

func profileView(p *domain.Profile) map[string]interface{} {
	return map[string]interface{}{
		"learner_id": p.LearnerID,
		"username":   p.Username,
		"xp":         p.XP,
		"level":      p.Level,
		"rank":       p.Rank,
		"streak":     p.Streak,
		"created_at": p.CreatedAt,
		"updated_at": p.UpdatedAt,
	}
}

func progressView(p *domain.CourseProgress) map[string]interface{} {
	return map[string]interface{}{
		"course_id":         p.CourseID,
		"completed_lessons": p.CompletedLessons,
		"course_complete":   p.CourseComplete,
		"last_accessed_at":  p.LastAccessedAt,
	}
}

func badgeView(b domain.Badge) map[string]interface{} {
	return map[string]interface{}{
		"id":          b.ID,
		"name":        b.Name,
		"description": b.Description,
		"icon":        b.Icon,
		"color":       b.Color,
	}
}

func earnedBadgeView(e domain.EarnedBadge) map[string]interface{} {
	return map[string]interface{}{
		"badge_id":  e.BadgeID,
		"earned_at": e.EarnedAt,
	}
}
