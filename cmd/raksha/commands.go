package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

func daemonAddr() string {
	if addr := os.Getenv("RAKSHA_ADDR"); addr != "" {
		return strings.TrimRight(addr, "/")
	}
	return "http://127.0.0.1:8080"
}

// getJSON fetches a daemon endpoint and decodes the response body.
func getJSON(path string, out interface{}) error {
	resp, err := http.Get(daemonAddr() + path)
	if err != nil {
		return fmt.Errorf("daemon not reachable at %s: %w", daemonAddr(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func cmdCourses() error {
	var body struct {
		Courses []struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			Difficulty   string `json:"difficulty"`
			XPPerLesson  int    `json:"xp_per_lesson"`
			TotalLessons int    `json:"total_lessons"`
		} `json:"courses"`
	}
	if err := getJSON("/v1/courses", &body); err != nil {
		return err
	}

	if len(body.Courses) == 0 {
		fmt.Println("No courses loaded.")
		return nil
	}

	fmt.Println("Courses")
	fmt.Println("=======")
	for _, c := range body.Courses {
		fmt.Printf("%-28s %-12s %2d lessons  %d XP each\n",
			c.ID, c.Difficulty, c.TotalLessons, c.XPPerLesson)
	}
	return nil
}

func cmdCourse(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: raksha course <id>")
	}

	var course struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Difficulty  string `json:"difficulty"`
		XPPerLesson int    `json:"xp_per_lesson"`
		Lessons     []struct {
			Number int    `json:"number"`
			Title  string `json:"title"`
			Kind   string `json:"kind"`
		} `json:"lessons"`
	}
	if err := getJSON("/v1/courses/"+args[0], &course); err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", course.Title, course.Difficulty)
	fmt.Println(course.Description)
	fmt.Printf("\n%d XP per lesson\n\n", course.XPPerLesson)
	for _, l := range course.Lessons {
		fmt.Printf("  %d. %-36s [%s]\n", l.Number, l.Title, l.Kind)
	}
	return nil
}

func cmdProfile(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: raksha profile <learner-id>")
	}

	var profile struct {
		Username string `json:"username"`
		XP       int    `json:"xp"`
		Level    int    `json:"level"`
		Rank     string `json:"rank"`
		Streak   int    `json:"streak"`
	}
	if err := getJSON("/v1/profiles/"+args[0], &profile); err != nil {
		return err
	}

	fmt.Printf("%s\n", profile.Username)
	fmt.Printf("  XP:     %d\n", profile.XP)
	fmt.Printf("  Level:  %d\n", profile.Level)
	fmt.Printf("  Rank:   %s\n", profile.Rank)
	if profile.Streak > 0 {
		fmt.Printf("  Streak: %d days\n", profile.Streak)
	}
	return nil
}

func cmdProgress(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: raksha progress <learner-id>")
	}

	var body struct {
		Progress []struct {
			CourseID         string `json:"course_id"`
			CompletedLessons int    `json:"completed_lessons"`
			TotalLessons     int    `json:"total_lessons"`
			CourseComplete   bool   `json:"course_complete"`
		} `json:"progress"`
	}
	if err := getJSON("/v1/profiles/"+args[0]+"/progress", &body); err != nil {
		return err
	}

	if len(body.Progress) == 0 {
		fmt.Println("No courses started yet.")
		return nil
	}

	fmt.Println("Course Progress")
	fmt.Println("===============")
	for _, p := range body.Progress {
		mark := " "
		if p.CourseComplete {
			mark = "*"
		}
		fmt.Printf("%s %-28s %d/%d lessons\n", mark, p.CourseID, p.CompletedLessons, p.TotalLessons)
	}
	return nil
}

func cmdLeaderboard() error {
	var body struct {
		Leaderboard []struct {
			Position int    `json:"position"`
			Username string `json:"username"`
			XP       int    `json:"xp"`
			Level    int    `json:"level"`
			Rank     string `json:"rank"`
		} `json:"leaderboard"`
	}
	if err := getJSON("/v1/leaderboard", &body); err != nil {
		return err
	}

	if len(body.Leaderboard) == 0 {
		fmt.Println("No learners yet.")
		return nil
	}

	fmt.Println("Leaderboard")
	fmt.Println("===========")
	for _, e := range body.Leaderboard {
		fmt.Printf("%2d. %-20s %5d XP  L%-2d %s\n", e.Position, e.Username, e.XP, e.Level, e.Rank)
	}
	return nil
}

func cmdBadges() error {
	var body struct {
		Badges []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"badges"`
	}
	if err := getJSON("/v1/badges", &body); err != nil {
		return err
	}

	fmt.Println("Badges")
	fmt.Println("======")
	for _, b := range body.Badges {
		fmt.Printf("%s %-16s %s\n", b.Icon, b.Name, b.Description)
	}
	return nil
}

func cmdStatus() error {
	var status struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Storage string `json:"storage"`
		Courses int    `json:"courses"`
	}
	if err := getJSON("/v1/status", &status); err != nil {
		return err
	}

	fmt.Printf("Daemon:  %s (v%s)\n", status.Status, status.Version)
	fmt.Printf("Storage: %s\n", status.Storage)
	fmt.Printf("Courses: %d\n", status.Courses)
	return nil
}
