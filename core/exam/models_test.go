package exam

import "testing"

func TestExamGrade(t *testing.T) {
	e := Exam{
		Questions: []Question{
			{Text: "q0", CorrectAnswer: 1},
			{Text: "q1", CorrectAnswer: 0},
			{Text: "q2", CorrectAnswer: 3},
		},
	}

	tests := []struct {
		name    string
		answers []Answer
		want    int
	}{
		{name: "no answers", want: 0},
		{name: "all wrong", answers: []Answer{{0, 0}, {1, 1}, {2, 2}}, want: 0},
		{name: "all correct", answers: []Answer{{0, 1}, {1, 0}, {2, 3}}, want: 100},
		{name: "two of three", answers: []Answer{{0, 1}, {1, 0}, {2, 0}}, want: 67},
		{name: "one of three", answers: []Answer{{0, 1}}, want: 33},
		{name: "duplicate answers keep the first", answers: []Answer{{0, 1}, {0, 2}, {1, 0}, {2, 3}}, want: 100},
		{name: "out of range question ignored", answers: []Answer{{7, 1}, {0, 1}}, want: 33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Grade(tt.answers); got != tt.want {
				t.Errorf("Grade() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("no questions", func(t *testing.T) {
		if got := (Exam{}).Grade([]Answer{{0, 1}}); got != 0 {
			t.Errorf("Grade() = %v, want 0", got)
		}
	})
}

func TestExamStudentView(t *testing.T) {
	e := Exam{
		ID:       "x1",
		CourseID: "c1",
		Title:    "Midterm",
		Code:     "MID-1",
		Questions: []Question{
			{Text: "q0", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 2},
		},
	}

	sv := e.StudentView()
	if sv.ID != e.ID || sv.CourseID != e.CourseID || sv.Title != e.Title {
		t.Errorf("StudentView() = %+v; identity fields do not match %+v", sv, e)
	}
	if len(sv.Questions) != 1 {
		t.Fatalf("StudentView() questions = %v, want 1", len(sv.Questions))
	}
	if q := sv.Questions[0]; q.Text != "q0" || len(q.Options) != 4 {
		t.Errorf("StudentView() question = %+v; want text and options preserved", q)
	}
}
