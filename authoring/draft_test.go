package authoring

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacoach/models"
)

type captureCreator struct {
	created []models.TestItem
	err     error
}

func (c *captureCreator) CreateTest(_ context.Context, test models.TestItem) (models.TestItem, error) {
	if c.err != nil {
		return models.TestItem{}, c.err
	}
	test.ID = "new-test"
	c.created = append(c.created, test)
	return test, nil
}

func TestParseBulk(t *testing.T) {
	text := `
  Drug of choice for anaphylaxis?
Adrenaline
  Atropine
Dopamine

Salbutamol
0
Which vitamin is an antioxidant?
A
B
C
E
3
trailing partial
option`

	qs := ParseBulk(text)
	require.Len(t, qs, 2)
	assert.Equal(t, "Drug of choice for anaphylaxis?", qs[0].Text)
	assert.Equal(t, []string{"Adrenaline", "Atropine", "Dopamine", "Salbutamol"}, qs[0].Options)
	assert.Equal(t, 0, qs[0].CorrectOptionIndex)
	assert.Equal(t, 3, qs[1].CorrectOptionIndex)
	assert.NotEqual(t, qs[0].ID, qs[1].ID)
}

func TestParseBulk_RecordCount(t *testing.T) {
	for _, n := range []int{0, 5, 6, 11, 12, 13, 30} {
		lines := make([]string, n)
		for i := range lines {
			lines[i] = "line"
		}
		assert.Len(t, ParseBulk(strings.Join(lines, "\n")), n/6, "lines=%d", n)
	}

	// blank and whitespace-only lines are dropped before grouping
	cases := []struct {
		text string
		want int
	}{
		{"Q\n\na\nb\n   \nc\nd\n\n1\n", 1},
		{"\n\nQ\na\nb\nc\nd\n2\n\n\nQ2\na\nb\nc\nd\n0", 2},
		{"Q\na\n\nb\nc\n\nd\nQ2\na\nb\nc", 1},
		{"\n \n\t\n", 0},
	}
	for _, tc := range cases {
		assert.Len(t, ParseBulk(tc.text), tc.want, "text=%q", tc.text)
	}
	qs := ParseBulk("Q\n\na\nb\nc\nd\n\n3")
	require.Len(t, qs, 1)
	assert.Equal(t, []string{"a", "b", "c", "d"}, qs[0].Options)
	assert.Equal(t, 3, qs[0].CorrectOptionIndex)
}

func TestParseBulk_BadDigitDefaultsToFirstOption(t *testing.T) {
	for _, digit := range []string{"x", "4", "-1", "B"} {
		qs := ParseBulk("Q\na\nb\nc\nd\n" + digit)
		require.Len(t, qs, 1)
		assert.Equal(t, 0, qs[0].CorrectOptionIndex, "digit=%q", digit)
	}
}

func TestAddQuestion_Validation(t *testing.T) {
	d := NewDraft()

	_, err := d.AddQuestion(QuestionInput{Text: "  ", Options: []string{"a", "", "c", "d"}, CorrectOptionIndex: 4})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "text")
	assert.Contains(t, verr.Fields, "options[1]")
	assert.Contains(t, verr.Fields, "correctOptionIndex")

	_, err = d.AddQuestion(QuestionInput{Text: "Q", Options: []string{"a", "b"}})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "options")
	assert.Empty(t, d.Questions)

	q, err := d.AddQuestion(QuestionInput{Text: " Q ", Options: []string{"a", "b", "c", "d"}, CorrectOptionIndex: 2, Explanation: "why"})
	require.NoError(t, err)
	assert.Equal(t, "Q", q.Text)
	assert.Len(t, d.Questions, 1)
}

func TestPublish(t *testing.T) {
	d := NewDraft()
	creator := &captureCreator{}

	_, err := d.Publish(context.Background(), creator)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "questions")
	assert.Contains(t, verr.Fields, "courseId")

	d.Meta = Meta{CourseID: "gpat", Title: "Mock 1", TimeMinutes: 15, PositiveMarks: 4, NegativeMarks: 1}
	assert.Equal(t, 1, d.ImportBulk("Q\na\nb\nc\nd\n1"))

	test, err := d.Publish(context.Background(), creator)
	require.NoError(t, err)
	assert.Equal(t, "new-test", test.ID)
	assert.Equal(t, 15, test.TimeMinutes)
	require.Len(t, creator.created, 1)
	assert.Len(t, creator.created[0].Questions, 1)
	assert.Equal(t, NewDraft(), d)
	assert.Empty(t, d.Meta.CourseID)
}

func TestPublish_StoreFailureKeepsQueue(t *testing.T) {
	d := NewDraft()
	d.Meta = Meta{CourseID: "gpat", Title: "Mock", TimeMinutes: 5}
	d.ImportBulk("Q\na\nb\nc\nd\n1")

	_, err := d.Publish(context.Background(), &captureCreator{err: errors.New("disk full")})
	assert.ErrorContains(t, err, "disk full")
	assert.Len(t, d.Questions, 1)
}

func TestDraftBook(t *testing.T) {
	book := NewDraftBook()

	book.SetMeta("admin-1", Meta{CourseID: "gpat", Title: "Mock", TimeMinutes: 10})
	n, draft := book.ImportBulk("admin-1", "Q\na\nb\nc\nd\n2\nQ2\na\nb\nc\nd\n0")
	assert.Equal(t, 2, n)
	assert.Len(t, draft.Questions, 2)

	assert.Empty(t, book.Get("admin-2").Questions)

	got := book.Get("admin-1")
	got.Questions[0].Text = "mutated"
	assert.Equal(t, "Q", book.Get("admin-1").Questions[0].Text)

	creator := &captureCreator{}
	_, err := book.Publish(context.Background(), "admin-1", creator)
	require.NoError(t, err)
	_, err = book.Publish(context.Background(), "admin-1", creator)
	assert.Error(t, err)
	assert.Len(t, creator.created, 1)

	book.Reset("admin-1")
	assert.Empty(t, book.Get("admin-1").Meta.CourseID)
}
