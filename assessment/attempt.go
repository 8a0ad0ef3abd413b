// Package assessment runs timed test attempts: answer selection, navigation, countdown and scoring.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pharmacoach/database"
	"pharmacoach/models"
)

var (
	ErrTestNotFound       = errors.New("test not found")
	ErrNotInProgress      = errors.New("attempt is not in progress")
	ErrAlreadySubmitted   = errors.New("attempt already submitted")
	ErrQuestionOutOfRange = errors.New("question index out of range")
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrNotOwner           = errors.New("attempt belongs to another user")
)

type State int

const (
	Loading State = iota
	InProgress
	Submitted
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case InProgress:
		return "in_progress"
	case Submitted:
		return "submitted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Loading, InProgress, Submitted} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown attempt state %q", text)
}

// TestLoader fetches a test by id.
type TestLoader interface {
	GetTest(ctx context.Context, id string) (models.TestItem, error)
}

// ResultRecorder persists a result, replacing any earlier one for the same user and test.
type ResultRecorder interface {
	SaveResult(ctx context.Context, r models.TestResult) error
}

// AdmitFunc may refuse to start a loaded test for a user.
type AdmitFunc func(user models.User, test models.TestItem) error

// Attempt is one user's run through one test.
type Attempt struct {
	ID     string
	UserID string

	recorder ResultRecorder
	now      func() time.Time

	mu          sync.Mutex
	state       State
	test        models.TestItem
	answers     map[int]int
	current     int
	remaining   int
	result      models.TestResult
	submittedAt time.Time
	done        chan struct{}
}

func newAttempt(id, userID string, recorder ResultRecorder, clock func() time.Time) *Attempt {
	return &Attempt{
		ID:       id,
		UserID:   userID,
		recorder: recorder,
		now:      clock,
		state:    Loading,
		answers:  make(map[int]int),
		done:     make(chan struct{}),
	}
}

// load moves a Loading attempt to InProgress with a full countdown.
func (a *Attempt) load(ctx context.Context, loader TestLoader, testID string, user models.User, admit AdmitFunc) error {
	test, err := loader.GetTest(ctx, testID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrTestNotFound
		}
		return fmt.Errorf("loading test %s: %w", testID, err)
	}
	if admit != nil {
		if err := admit(user, test); err != nil {
			return err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Loading {
		return ErrNotInProgress
	}
	a.test = test
	a.remaining = test.TimeMinutes * 60
	a.state = InProgress
	return nil
}

func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Attempt) TestID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.test.ID
}

// Done is closed once the attempt is submitted.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// SelectAnswer records optionIndex for questionIndex, overwriting an earlier choice.
func (a *Attempt) SelectAnswer(questionIndex, optionIndex int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != InProgress {
		return ErrNotInProgress
	}
	if questionIndex < 0 || questionIndex >= len(a.test.Questions) {
		return ErrQuestionOutOfRange
	}
	a.answers[questionIndex] = optionIndex
	return nil
}

// Navigate moves the current question by delta, clamped to the question list.
func (a *Attempt) Navigate(delta int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != InProgress {
		return a.current, ErrNotInProgress
	}
	next := a.current + delta
	if last := len(a.test.Questions) - 1; next > last {
		next = last
	}
	if next < 0 {
		next = 0
	}
	a.current = next
	return a.current, nil
}

// Submit scores the attempt and records the result. Only the first call does any work;
// later calls return the first result together with ErrAlreadySubmitted.
func (a *Attempt) Submit(ctx context.Context) (models.TestResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case Submitted:
		return a.result, ErrAlreadySubmitted
	case Loading:
		return models.TestResult{}, ErrNotInProgress
	}

	a.submittedAt = a.now()
	a.result = models.TestResult{
		UserID:         a.UserID,
		TestID:         a.test.ID,
		CourseID:       a.test.CourseID,
		TestTitle:      a.test.Title,
		Score:          Score(a.test.Questions, a.answers),
		TotalQuestions: len(a.test.Questions),
		Date:           a.submittedAt.UTC(),
	}
	a.state = Submitted
	close(a.done)

	if err := a.recorder.SaveResult(ctx, a.result); err != nil {
		return a.result, fmt.Errorf("recording result: %w", err)
	}
	return a.result, nil
}

// tick advances the countdown by one second. It reports whether the countdown is still running
// and whether it just reached zero.
func (a *Attempt) tick() (running, expired bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != InProgress {
		return false, false
	}
	if a.remaining > 0 {
		a.remaining--
	}
	return true, a.remaining == 0
}

func (a *Attempt) countdown(t Ticker) {
	defer t.Stop()
	for {
		select {
		case <-a.done:
			return
		case <-t.C():
			running, expired := a.tick()
			if !running {
				return
			}
			if !expired {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			res, err := a.Submit(ctx)
			cancel()
			switch {
			case errors.Is(err, ErrAlreadySubmitted):
			case err != nil:
				slog.Error("auto-submit failed", "attempt", a.ID, "err", err)
			default:
				slog.Info("attempt auto-submitted", "attempt", a.ID, "user", a.UserID, "score", res.Score, "total", res.TotalQuestions)
			}
			return
		}
	}
}

// Score counts questions whose recorded answer matches the correct option.
// Unanswered questions count as wrong and no marks are deducted.
func Score(questions []models.Question, answers map[int]int) int {
	score := 0
	for i, q := range questions {
		if choice, ok := answers[i]; ok && choice == q.CorrectOptionIndex {
			score++
		}
	}
	return score
}

// Snapshot is a point-in-time view of an attempt.
type Snapshot struct {
	ID               string             `json:"id"`
	UserID           string             `json:"userId"`
	TestID           string             `json:"testId"`
	CourseID         string             `json:"courseId"`
	Title            string             `json:"title"`
	State            State              `json:"state"`
	Questions        []models.Question  `json:"questions"`
	Answers          []int              `json:"answers"`
	CurrentIndex     int                `json:"currentIndex"`
	RemainingSeconds int                `json:"remainingSeconds"`
	Result           *models.TestResult `json:"result,omitempty"`
	// Correct is filled after submission, one entry per question.
	Correct []bool `json:"correct,omitempty"`
}

// Snapshot copies the attempt. Correct options and explanations are hidden until it is submitted.
// Unanswered questions show -1 in Answers.
func (a *Attempt) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	test := a.test.Clone()
	if a.state != Submitted {
		test = test.WithoutAnswers()
	}

	answers := make([]int, len(test.Questions))
	for i := range answers {
		answers[i] = -1
		if choice, ok := a.answers[i]; ok {
			answers[i] = choice
		}
	}

	snap := Snapshot{
		ID:               a.ID,
		UserID:           a.UserID,
		TestID:           test.ID,
		CourseID:         test.CourseID,
		Title:            test.Title,
		State:            a.state,
		Questions:        test.Questions,
		Answers:          answers,
		CurrentIndex:     a.current,
		RemainingSeconds: a.remaining,
	}
	if snap.Questions == nil {
		snap.Questions = []models.Question{}
	}
	if a.state == Submitted {
		result := a.result
		snap.Result = &result
		snap.Correct = make([]bool, len(test.Questions))
		for i, q := range test.Questions {
			snap.Correct[i] = answers[i] == q.CorrectOptionIndex
		}
	}
	return snap
}

func (a *Attempt) submittedBefore(t time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == Submitted && a.submittedAt.Before(t)
}
