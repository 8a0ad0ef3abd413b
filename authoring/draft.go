// Package authoring builds tests question by question or from pasted text, then publishes them.
package authoring

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"pharmacoach/models"
)

// linesPerRecord is the bulk import record size: question, four options, correct option digit.
const linesPerRecord = 2 + models.OptionCount

// ValidationError carries field level problems with a draft or question.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Meta describes the test being authored.
type Meta struct {
	CourseID      string  `json:"courseId"`
	Title         string  `json:"title"`
	TimeMinutes   int     `json:"timeMinutes"`
	PositiveMarks float64 `json:"positiveMarks"`
	NegativeMarks float64 `json:"negativeMarks"`
}

// QuestionInput is a manually entered question.
type QuestionInput struct {
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Explanation        string   `json:"explanation"`
}

// Draft is an unpublished test.
type Draft struct {
	Meta      Meta              `json:"meta"`
	Questions []models.Question `json:"questions"`
}

func NewDraft() Draft {
	return Draft{Meta: Meta{TimeMinutes: 30, PositiveMarks: 1}, Questions: []models.Question{}}
}

func (d Draft) clone() Draft {
	qs := make([]models.Question, len(d.Questions))
	for i, q := range d.Questions {
		q.Options = append([]string(nil), q.Options...)
		qs[i] = q
	}
	d.Questions = qs
	return d
}

// AddQuestion validates in and appends it to the queue.
func (d *Draft) AddQuestion(in QuestionInput) (models.Question, error) {
	fields := map[string]string{}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		fields["text"] = "question text is required"
	}
	if len(in.Options) != models.OptionCount {
		fields["options"] = fmt.Sprintf("exactly %d options are required", models.OptionCount)
	}
	options := make([]string, len(in.Options))
	for i, o := range in.Options {
		options[i] = strings.TrimSpace(o)
		if options[i] == "" {
			fields[fmt.Sprintf("options[%d]", i)] = "option text is required"
		}
	}
	if in.CorrectOptionIndex < 0 || in.CorrectOptionIndex >= models.OptionCount {
		fields["correctOptionIndex"] = fmt.Sprintf("must be between 0 and %d", models.OptionCount-1)
	}
	if len(fields) > 0 {
		return models.Question{}, &ValidationError{Fields: fields}
	}

	q := models.Question{
		ID:                 uuid.NewString(),
		Text:               text,
		Options:            options,
		CorrectOptionIndex: in.CorrectOptionIndex,
		Explanation:        strings.TrimSpace(in.Explanation),
	}
	d.Questions = append(d.Questions, q)
	return q, nil
}

// ParseBulk reads six-line records: question text, options A to D, then the correct option digit.
// Lines are trimmed and blank lines skipped before grouping; a trailing partial record is ignored.
// A digit that is not a number in range selects the first option.
func ParseBulk(text string) []models.Question {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	questions := make([]models.Question, 0, len(lines)/linesPerRecord)
	for i := 0; i+linesPerRecord <= len(lines); i += linesPerRecord {
		rec := lines[i : i+linesPerRecord]
		correct, err := strconv.Atoi(rec[linesPerRecord-1])
		if err != nil || correct < 0 || correct >= models.OptionCount {
			correct = 0
		}
		questions = append(questions, models.Question{
			ID:                 uuid.NewString(),
			Text:               rec[0],
			Options:            append([]string(nil), rec[1:1+models.OptionCount]...),
			CorrectOptionIndex: correct,
		})
	}
	return questions
}

// ImportBulk appends the parsed questions and returns how many were added.
func (d *Draft) ImportBulk(text string) int {
	qs := ParseBulk(text)
	d.Questions = append(d.Questions, qs...)
	return len(qs)
}

// TestCreator persists a published test.
type TestCreator interface {
	CreateTest(ctx context.Context, test models.TestItem) (models.TestItem, error)
}

func (d *Draft) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(d.Meta.CourseID) == "" {
		fields["courseId"] = "select a course"
	}
	if strings.TrimSpace(d.Meta.Title) == "" {
		fields["title"] = "title is required"
	}
	if d.Meta.TimeMinutes <= 0 {
		fields["timeMinutes"] = "must be greater than 0"
	}
	if len(d.Questions) == 0 {
		fields["questions"] = "add at least one question"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Publish stores the draft as a new test and resets the draft, meta included.
func (d *Draft) Publish(ctx context.Context, creator TestCreator) (models.TestItem, error) {
	if err := d.validate(); err != nil {
		return models.TestItem{}, err
	}
	test, err := creator.CreateTest(ctx, models.TestItem{
		CourseID:      strings.TrimSpace(d.Meta.CourseID),
		Title:         strings.TrimSpace(d.Meta.Title),
		Questions:     d.clone().Questions,
		TimeMinutes:   d.Meta.TimeMinutes,
		PositiveMarks: d.Meta.PositiveMarks,
		NegativeMarks: d.Meta.NegativeMarks,
	})
	if err != nil {
		return models.TestItem{}, fmt.Errorf("publishing test: %w", err)
	}
	*d = NewDraft()
	return test, nil
}

// DraftBook keeps one draft per author.
type DraftBook struct {
	mu     sync.Mutex
	drafts map[string]*Draft
}

func NewDraftBook() *DraftBook {
	return &DraftBook{drafts: make(map[string]*Draft)}
}

func (b *DraftBook) draft(authorID string) *Draft {
	d, ok := b.drafts[authorID]
	if !ok {
		nd := NewDraft()
		d = &nd
		b.drafts[authorID] = d
	}
	return d
}

// Get returns a copy of the author's draft.
func (b *DraftBook) Get(authorID string) Draft {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draft(authorID).clone()
}

// SetMeta replaces the draft's meta and keeps its questions.
func (b *DraftBook) SetMeta(authorID string, meta Meta) Draft {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.draft(authorID)
	d.Meta = meta
	return d.clone()
}

func (b *DraftBook) AddQuestion(authorID string, in QuestionInput) (models.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draft(authorID).AddQuestion(in)
}

func (b *DraftBook) ImportBulk(authorID, text string) (int, Draft) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.draft(authorID)
	n := d.ImportBulk(text)
	return n, d.clone()
}

// Reset discards the author's draft.
func (b *DraftBook) Reset(authorID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.drafts, authorID)
}

// Publish publishes the author's draft. The lock is held while the test is stored so a second
// publish of the same queue sees it already cleared.
func (b *DraftBook) Publish(ctx context.Context, authorID string, creator TestCreator) (models.TestItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draft(authorID).Publish(ctx, creator)
}
