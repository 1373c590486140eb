package exam

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/chuoapp/chuo/core"
)

// Exam statuses; deletion is two-phase: an instructor requests it and an
// admin (or the instructor of record) confirms.
const (
	StatusActive            = "active"
	StatusDeletionRequested = "deletion_requested"
	StatusDeleted           = "deleted"
)

type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
}

type Exam struct {
	ID              string     `json:"id"`
	CourseID        string     `json:"course_id"`
	Title           string     `json:"title"`
	Code            string     `json:"code"`
	Date            time.Time  `json:"date"`
	DurationMinutes int        `json:"duration_minutes"`
	Questions       []Question `json:"questions"`
	Status          string     `json:"status"`
	Version         int        `json:"-"`
	CreatedAt       time.Time  `json:"created_at"` // UTC
	UpdatedAt       time.Time  `json:"updated_at"` // UTC
}

// StudentQuestion is a Question with the correct answer redacted.
type StudentQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// StudentView is the exam projection served to students; it never carries
// correct answers.
type StudentView struct {
	ID              string            `json:"id"`
	CourseID        string            `json:"course_id"`
	Title           string            `json:"title"`
	Code            string            `json:"code"`
	Date            time.Time         `json:"date"`
	DurationMinutes int               `json:"duration_minutes"`
	Questions       []StudentQuestion `json:"questions"`
}

func (e Exam) StudentView() StudentView {
	qs := make([]StudentQuestion, 0, len(e.Questions))
	for _, q := range e.Questions {
		qs = append(qs, StudentQuestion{Text: q.Text, Options: q.Options})
	}
	return StudentView{
		ID:              e.ID,
		CourseID:        e.CourseID,
		Title:           e.Title,
		Code:            e.Code,
		Date:            e.Date,
		DurationMinutes: e.DurationMinutes,
		Questions:       qs,
	}
}

// Answer is a student's pick for one question, keyed by question index.
type Answer struct {
	Question int `json:"question" validate:"min=0"`
	Selected int `json:"selected" validate:"min=0,max=3"`
}

type Result struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	ExamID    string    `json:"exam_id"`
	CourseID  string    `json:"course_id"`
	Answers   []Answer  `json:"answers"`
	Score     int       `json:"score"` // percent, 0-100
	Version   int       `json:"-"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Grade computes the canonical percent score of the answers against the
// exam's questions: round(100 * correct / total). Each question counts once;
// a missing answer just scores zero for that question.
func (e Exam) Grade(answers []Answer) int {
	total := len(e.Questions)
	if total == 0 {
		return 0
	}
	picked := make(map[int]int, len(answers))
	for _, a := range answers {
		if _, ok := picked[a.Question]; !ok {
			picked[a.Question] = a.Selected
		}
	}
	var correct int
	for i, q := range e.Questions {
		if sel, ok := picked[i]; ok && sel == q.CorrectAnswer {
			correct++
		}
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// NewQuestion is the authoring shape of a Question: exactly 4 options and a
// correct answer index into them.
type NewQuestion struct {
	Text          string   `json:"text" validate:"required"`
	Options       []string `json:"options" validate:"required,len=4,dive,required"`
	CorrectAnswer int      `json:"correct_answer" validate:"min=0,max=3"`
}

// NewExam contains information needed to author a new Exam.
type NewExam struct {
	CourseID        string        `json:"course_id" validate:"required"`
	Title           string        `json:"title" validate:"required"`
	Code            string        `json:"code" validate:"required"`
	Date            time.Time     `json:"date" validate:"required"`
	DurationMinutes int           `json:"duration_minutes" validate:"required,min=5,max=480"`
	Questions       []NewQuestion `json:"questions" validate:"required,min=1,dive"`
}

func (ne *NewExam) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Code = core.CleanString(ne.Code)
	return validate.Struct(ne)
}

func (ne NewExam) questions() []Question {
	qs := make([]Question, 0, len(ne.Questions))
	for _, q := range ne.Questions {
		qs = append(qs, Question{Text: q.Text, Options: q.Options, CorrectAnswer: q.CorrectAnswer})
	}
	return qs
}

// UpdateExam defines what information may be provided to modify an existing Exam.
type UpdateExam struct {
	Title           string        `json:"title"`
	Code            string        `json:"code"`
	Date            time.Time     `json:"date"`
	DurationMinutes int           `json:"duration_minutes" validate:"omitempty,min=5,max=480"`
	Questions       []NewQuestion `json:"questions" validate:"omitempty,min=1,dive"`
}

func (ue *UpdateExam) Validate(validate *validator.Validate) error {
	ue.Title = core.CleanString(ue.Title)
	ue.Code = core.CleanString(ue.Code)
	return validate.Struct(ue)
}

// Submission is a student's one-shot answer sheet for an exam.
type Submission struct {
	Answers []Answer `json:"answers" validate:"required,min=1,dive"`
}

func (s Submission) Validate(validate *validator.Validate) error {
	return validate.Struct(s)
}

// UpdateResult is the instructor/admin score override, keyed by the
// (exam, student) pair rather than the result id.
type UpdateResult struct {
	ExamID    string `json:"exam_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
	Score     *int   `json:"score" validate:"required,min=0,max=100"`
}

func (ur UpdateResult) Validate(validate *validator.Validate) error {
	return validate.Struct(ur)
}

type QueryFilter struct {
	CourseID string `query:"course_id"`
	Status   string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.CourseID == "" && qf.Status == ""
}
