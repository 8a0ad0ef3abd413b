package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// OptionCount is the number of options every question carries.
const OptionCount = 4

type Question struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Explanation        string   `json:"explanation,omitempty"`
}

// TestItem is a timed set of multiple-choice questions for a course.
type TestItem struct {
	ID            string                        `json:"id" gorm:"primaryKey;size:64"`
	CourseID      string                        `json:"courseId" gorm:"index;size:64"`
	Title         string                        `json:"title"`
	Questions     datatypes.JSONSlice[Question] `json:"questions"`
	TimeMinutes   int                           `json:"timeMinutes"`
	PositiveMarks float64                       `json:"positiveMarks"`
	NegativeMarks float64                       `json:"negativeMarks"`
	CreatedAt     time.Time                     `json:"createdAt"`
}

func (t TestItem) Clone() TestItem {
	if t.Questions != nil {
		qs := make(datatypes.JSONSlice[Question], len(t.Questions))
		for i, q := range t.Questions {
			q.Options = slices.Clone(q.Options)
			qs[i] = q
		}
		t.Questions = qs
	}
	return t
}

// WithoutAnswers returns a copy with correct options and explanations blanked, for students.
func (t TestItem) WithoutAnswers() TestItem {
	c := t.Clone()
	for i := range c.Questions {
		c.Questions[i].CorrectOptionIndex = -1
		c.Questions[i].Explanation = ""
	}
	return c
}
