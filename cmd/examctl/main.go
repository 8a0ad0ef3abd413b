// Command examctl plays a timed test against a pharmacoach server from the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"pharmacoach/assessment"
	"pharmacoach/client"
	"pharmacoach/models"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	timerColor   = color.New(color.FgYellow)
	urgentColor  = color.New(color.FgRed, color.Bold)
	correctColor = color.New(color.FgGreen)
	wrongColor   = color.New(color.FgRed)
	dimColor     = color.New(color.Faint)
)

func main() {
	server := pflag.String("server", "http://localhost:3000", "pharmacoach server URL")
	email := pflag.String("email", "", "login email")
	password := pflag.String("password", "", "login password")
	testID := pflag.String("test", "", "test id to start; lists tests when empty")
	courseID := pflag.String("course", "", "only list tests of this course")
	pflag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: examctl --email you@example.com --password secret [--test id]")
		os.Exit(2)
	}

	ctx := context.Background()
	api := client.New(*server)
	user, err := api.Login(ctx, *email, *password)
	if err != nil {
		fail(err)
	}
	titleColor.Printf("Welcome, %s\n", user.Name)

	if *testID == "" {
		tests, err := api.Tests(ctx, *courseID)
		if err != nil {
			fail(err)
		}
		printTests(tests)
		return
	}

	p := &player{api: api, in: bufio.NewScanner(os.Stdin)}
	if err := p.run(ctx, *testID); err != nil {
		fail(err)
	}
}

func fail(err error) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrNetwork):
		urgentColor.Fprintln(os.Stderr, "Cannot reach the server. Check --server and try again.")
	case errors.As(err, &apiErr):
		urgentColor.Fprintln(os.Stderr, apiErr.Message)
	default:
		urgentColor.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}

func printTests(tests []models.TestItem) {
	if len(tests) == 0 {
		fmt.Println("No tests available.")
		return
	}
	for _, t := range tests {
		fmt.Printf("%-38s %-12s %s ", t.ID, t.CourseID, t.Title)
		dimColor.Printf("(%d questions, %d min)\n", len(t.Questions), t.TimeMinutes)
	}
}

type player struct {
	api  *client.Client
	in   *bufio.Scanner
	snap assessment.Snapshot
}

func (p *player) run(ctx context.Context, testID string) error {
	snap, err := p.api.StartAttempt(ctx, testID)
	if err != nil {
		return err
	}
	if len(snap.Questions) == 0 {
		return errors.New("this test has no questions")
	}
	p.snap = snap
	deadline := time.Now().Add(time.Duration(snap.RemainingSeconds) * time.Second)

	lines := make(chan string)
	go func() {
		for p.in.Scan() {
			lines <- strings.TrimSpace(p.in.Text())
		}
		close(lines)
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	p.render(deadline)
	for p.snap.State == assessment.InProgress {
		select {
		case <-ticker.C:
			left := time.Until(deadline)
			if left <= 0 {
				// the server submits on its own clock; fetch the final state
				time.Sleep(1500 * time.Millisecond)
				if p.snap, err = p.api.Attempt(ctx, p.snap.ID); err != nil {
					return err
				}
				urgentColor.Println("\nTime is up!")
				continue
			}
			if left < time.Minute {
				urgentColor.Printf("\r%s left ", formatLeft(left))
			}
		case line, ok := <-lines:
			if !ok {
				line = "s"
			}
			if err := p.command(ctx, line); err != nil {
				return err
			}
			if p.snap.State == assessment.InProgress {
				p.render(deadline)
			}
		}
	}

	p.review()
	return nil
}

func (p *player) command(ctx context.Context, line string) error {
	var (
		snap assessment.Snapshot
		err  error
	)
	line = strings.ToLower(line)
	switch line {
	case "n", "":
		snap, err = p.api.Navigate(ctx, p.snap.ID, 1)
	case "p":
		snap, err = p.api.Navigate(ctx, p.snap.ID, -1)
	case "s":
		snap, err = p.api.Submit(ctx, p.snap.ID)
	case "a", "b", "c", "d":
		snap, err = p.api.Answer(ctx, p.snap.ID, p.snap.CurrentIndex, int(line[0]-'a'))
	default:
		n, convErr := strconv.Atoi(line)
		if convErr != nil {
			dimColor.Println("commands: a-d answer, n next, p previous, <number> jump, s submit")
			return nil
		}
		snap, err = p.api.Navigate(ctx, p.snap.ID, n-1-p.snap.CurrentIndex)
	}

	// 409: the timer got there first
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		snap, err = p.api.Attempt(ctx, p.snap.ID)
	}
	if err != nil {
		return err
	}
	p.snap = snap
	return nil
}

func (p *player) render(deadline time.Time) {
	q := p.snap.Questions[p.snap.CurrentIndex]
	fmt.Println()
	titleColor.Printf("%s  ", p.snap.Title)
	timerColor.Printf("[%s left]\n", formatLeft(time.Until(deadline)))
	fmt.Printf("Q%d/%d. %s\n", p.snap.CurrentIndex+1, len(p.snap.Questions), q.Text)
	for i, opt := range q.Options {
		marker := " "
		if p.snap.Answers[p.snap.CurrentIndex] == i {
			marker = "*"
		}
		fmt.Printf(" %s %c) %s\n", marker, 'a'+i, opt)
	}
	fmt.Print("> ")
}

func (p *player) review() {
	fmt.Println()
	if r := p.snap.Result; r != nil {
		titleColor.Printf("Score: %d / %d\n", r.Score, r.TotalQuestions)
	}
	for i, q := range p.snap.Questions {
		ok := i < len(p.snap.Correct) && p.snap.Correct[i]
		c := wrongColor
		if ok {
			c = correctColor
		}
		c.Printf("Q%d. %s\n", i+1, q.Text)
		if q.CorrectOptionIndex >= 0 && q.CorrectOptionIndex < len(q.Options) {
			fmt.Printf("   answer: %s\n", q.Options[q.CorrectOptionIndex])
		}
		if q.Explanation != "" {
			dimColor.Printf("   %s\n", q.Explanation)
		}
	}
}

func formatLeft(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
