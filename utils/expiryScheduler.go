package utils

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"pharmacoach/access"
	"pharmacoach/database"
	"pharmacoach/models"
)

// CourseFinder resolves course titles for reminder emails.
type CourseFinder interface {
	Find(ctx context.Context, id string) (models.Course, bool)
}

// Sweeper drops finished work and returns how much it removed.
type Sweeper interface {
	Sweep() int
}

// SweeperFunc adapts a function to Sweeper.
type SweeperFunc func() int

func (f SweeperFunc) Sweep() int { return f() }

// ExpiryScheduler sends course expiry reminders and runs periodic cleanups.
type ExpiryScheduler struct {
	Emails       *EmailService
	Courses      CourseFinder
	ReminderDays int
	Now          func() time.Time

	cron *cron.Cron
}

// Start registers the jobs and starts the cron runner: reminders daily at 9 AM, sweeps every few minutes.
func (s *ExpiryScheduler) Start(sweepers map[string]Sweeper) error {
	slog.Info("[EXPIRY-SCHEDULER] Initializing expiry scheduler...")
	if s.Now == nil {
		s.Now = time.Now
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc("0 9 * * *", func() {
		slog.Info("[EXPIRY-SCHEDULER] Running daily expiry check...")
		s.ProcessExpiringCourses(context.Background())
	}); err != nil {
		return err
	}

	for name, sw := range sweepers {
		name, sw := name, sw
		if _, err := s.cron.AddFunc("@every 5m", func() {
			if n := sw.Sweep(); n > 0 {
				slog.Debug("[EXPIRY-SCHEDULER] sweep", "job", name, "removed", n)
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	slog.Info("[EXPIRY-SCHEDULER] Expiry scheduler started - reminders run daily at 9 AM", "reminderDays", s.ReminderDays)
	return nil
}

// Stop halts the cron runner and waits for running jobs.
func (s *ExpiryScheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// ProcessExpiringCourses emails every approved student whose course access ends on the day
// ReminderDays from now, and returns how many reminders were sent.
func (s *ExpiryScheduler) ProcessExpiringCourses(ctx context.Context) int {
	if s.Now == nil {
		s.Now = time.Now
	}
	from, to := access.ReminderWindow(s.Now(), s.ReminderDays)

	users, err := database.Database.Store.ListUsers(ctx)
	if err != nil {
		slog.Error("[EXPIRY-SCHEDULER] Error fetching users", "err", err)
		return 0
	}

	sent := 0
	for _, user := range users {
		if user.IsAdmin() || !user.IsApproved() {
			continue
		}
		for _, exp := range access.ExpiringBetween(user, from, to) {
			title := exp.CourseID
			if s.Courses != nil {
				if course, ok := s.Courses.Find(ctx, exp.CourseID); ok {
					title = course.Title
				}
			}
			s.Emails.SendExpiryReminder(user.Email, user.Name, title, exp.ExpiresAt)
			sent++
			slog.Info("[EXPIRY-SCHEDULER] Sent expiry reminder", "user", user.Email, "course", exp.CourseID, "expiresAt", exp.ExpiresAt)
		}
	}

	slog.Info("[EXPIRY-SCHEDULER] Found courses expiring soon", "reminders", sent)
	return sent
}
