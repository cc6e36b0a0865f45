package content

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/raksha/internal/domain"
)

// CourseFile is the YAML structure for a course pack.
type CourseFile struct {
	ID          string       `yaml:"id"`
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Difficulty  string       `yaml:"difficulty"`
	Icon        string       `yaml:"icon"`
	XPPerLesson int          `yaml:"xp_per_lesson"`
	Lessons     []LessonFile `yaml:"lessons"`
}

// LessonFile is the YAML structure for one lesson.
type LessonFile struct {
	ID       string       `yaml:"id"`
	Number   int          `yaml:"number"`
	Title    string       `yaml:"title"`
	Story    string       `yaml:"story"`
	Concept  string       `yaml:"concept"`
	Exercise ExerciseFile `yaml:"exercise"`
}

// ExerciseFile is the YAML structure for a lesson's exercise. Type selects
// the variant; only the fields for that variant are read.
type ExerciseFile struct {
	Type        string `yaml:"type"`
	Title       string `yaml:"title"`
	Instruction string `yaml:"instruction"`

	// categorization
	Categories []string `yaml:"categories"`
	Items      []struct {
		ID       string `yaml:"id"`
		Text     string `yaml:"text"`
		Category string `yaml:"category"`
	} `yaml:"items"`

	// single_choice / freeform_scenario
	Scenario string `yaml:"scenario"`
	Options  []struct {
		ID          string `yaml:"id"`
		Text        string `yaml:"text"`
		Correct     bool   `yaml:"correct"`
		Explanation string `yaml:"explanation"`
	} `yaml:"options"`

	// multi_select
	Messages []struct {
		ID          string `yaml:"id"`
		Text        string `yaml:"text"`
		Target      bool   `yaml:"target"`
		Explanation string `yaml:"explanation"`
	} `yaml:"messages"`

	// binary_scenario
	Scenarios []struct {
		ID          string `yaml:"id"`
		Text        string `yaml:"text"`
		Answer      string `yaml:"answer"`
		Explanation string `yaml:"explanation"`
	} `yaml:"scenarios"`

	// numeric_answer
	TotalAmount      float64 `yaml:"total_amount"`
	ParticipantCount int     `yaml:"participant_count"`
	Answer           float64 `yaml:"answer"`
}

// Loader reads course packs from YAML files.
type Loader struct {
	basePath string
}

// NewLoader creates a loader rooted at basePath; every *.yaml file there
// is one course.
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// LoadCourse loads and validates a single course file.
func (l *Loader) LoadCourse(name string) (*domain.Course, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, name))
	if err != nil {
		return nil, fmt.Errorf("read course file: %w", err)
	}
	return parseCourse(name, data)
}

// LoadAll loads every course file under the base path.
func (l *Loader) LoadAll() ([]*domain.Course, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("read courses directory: %w", err)
	}

	var courses []*domain.Course
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		course, err := l.LoadCourse(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("load course %s: %w", entry.Name(), err)
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// LoadFS loads every course file from an fs.FS, used for the embedded
// default catalog.
func LoadFS(fsys fs.FS, dir string) ([]*domain.Course, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded courses: %w", err)
	}

	var courses []*domain.Course
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		data, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded course %s: %w", entry.Name(), err)
		}
		course, err := parseCourse(entry.Name(), data)
		if err != nil {
			return nil, fmt.Errorf("load embedded course %s: %w", entry.Name(), err)
		}
		courses = append(courses, course)
	}
	return courses, nil
}

func parseCourse(name string, data []byte) (*domain.Course, error) {
	var file CourseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse course file: %w", err)
	}

	course := &domain.Course{
		ID:          file.ID,
		Title:       file.Title,
		Description: file.Description,
		Difficulty:  domain.Difficulty(file.Difficulty),
		Icon:        file.Icon,
		XPPerLesson: file.XPPerLesson,
	}

	for _, lf := range file.Lessons {
		ex, err := buildExercise(lf.Exercise)
		if err != nil {
			return nil, fmt.Errorf("lesson %d: %w", lf.Number, err)
		}
		course.Lessons = append(course.Lessons, domain.Lesson{
			ID:       lf.ID,
			Number:   lf.Number,
			Title:    lf.Title,
			Story:    lf.Story,
			Concept:  lf.Concept,
			Exercise: *ex,
		})
	}

	if err := course.Validate(); err != nil {
		return nil, fmt.Errorf("course %s: %w", name, err)
	}
	return course, nil
}

// buildExercise maps the YAML type tag to its variant. An unrecognized
// type is a configuration error, not a silently-incomplete lesson.
func buildExercise(ef ExerciseFile) (*domain.Exercise, error) {
	ex := &domain.Exercise{Title: ef.Title, Instruction: ef.Instruction}

	switch domain.ExerciseKind(ef.Type) {
	case domain.KindCategorization:
		body := &domain.CategorizationExercise{Categories: ef.Categories}
		for _, item := range ef.Items {
			body.Items = append(body.Items, domain.CategorizationItem{
				ID:              item.ID,
				Text:            item.Text,
				CorrectCategory: item.Category,
			})
		}
		ex.Body = body

	case domain.KindSingleChoice:
		ex.Body = &domain.SingleChoiceExercise{Options: buildOptions(ef)}

	case domain.KindMultiSelect:
		body := &domain.MultiSelectExercise{}
		for _, msg := range ef.Messages {
			body.Messages = append(body.Messages, domain.DetectionMessage{
				ID:          msg.ID,
				Text:        msg.Text,
				Target:      msg.Target,
				Explanation: msg.Explanation,
			})
		}
		ex.Body = body

	case domain.KindBinaryScenario:
		body := &domain.BinaryScenarioExercise{}
		for _, sc := range ef.Scenarios {
			body.Scenarios = append(body.Scenarios, domain.BinaryScenario{
				ID:            sc.ID,
				Text:          sc.Text,
				CorrectAnswer: domain.Side(sc.Answer),
				Explanation:   sc.Explanation,
			})
		}
		ex.Body = body

	case domain.KindNumericAnswer:
		ex.Body = &domain.NumericAnswerExercise{
			TotalAmount:      ef.TotalAmount,
			ParticipantCount: ef.ParticipantCount,
			CorrectAnswer:    ef.Answer,
		}

	case domain.KindFreeformScenario:
		ex.Body = &domain.FreeformScenarioExercise{
			Scenario: ef.Scenario,
			Options:  buildOptions(ef),
		}

	default:
		return nil, fmt.Errorf("%w: exercise type %q", domain.ErrUnknownExerciseKind, ef.Type)
	}

	return ex, nil
}

func buildOptions(ef ExerciseFile) []domain.ChoiceOption {
	var opts []domain.ChoiceOption
	for _, o := range ef.Options {
		opts = append(opts, domain.ChoiceOption{
			ID:          o.ID,
			Text:        o.Text,
			Correct:     o.Correct,
			Explanation: o.Explanation,
		})
	}
	return opts
}
