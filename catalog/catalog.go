// Package catalog serves course metadata from a remote list, the record store or the built-in seed.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"pharmacoach/models"
)

// CourseStore is the part of the record store the catalog reads and writes.
type CourseStore interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	SaveCourse(ctx context.Context, course models.Course) (models.Course, error)
}

// Seed is the built-in course list used when nothing else is available.
var Seed = []models.Course{
	{ID: "gpat", Title: "GPAT Complete Preparation", Description: "Graduate Pharmacy Aptitude Test: full syllabus, mock tests and live revision.", Price: 4999, ValidityDays: 365, Category: "Entrance", Icon: "graduation-cap", Color: "#2563eb"},
	{ID: "niper", Title: "NIPER JEE", Description: "Masters entrance for the National Institutes of Pharmaceutical Education and Research.", Price: 3999, ValidityDays: 365, Category: "Entrance", Icon: "flask", Color: "#7c3aed"},
	{ID: "drug-inspector", Title: "Drug Inspector", Description: "State and central Drug Inspector recruitment exams.", Price: 5999, ValidityDays: 365, Category: "Government", Icon: "shield", Color: "#059669"},
	{ID: "pharmacist", Title: "Pharmacist Recruitment", Description: "RRB, ESIC, AIIMS and state pharmacist exams.", Price: 2999, ValidityDays: 180, Category: "Government", Icon: "pills", Color: "#d97706"},
	{ID: "dpee", Title: "D.Pharm Exit Exam (DPEE)", Description: "Exit examination for diploma holders.", Price: 1999, ValidityDays: 180, Category: "Licensure", Icon: "clipboard", Color: "#dc2626"},
}

// Catalog resolves the course list. The first non-empty source wins: remote, then store, then Seed.
type Catalog struct {
	client *resty.Client
	url    string
	store  CourseStore
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	cached    []models.Course
	fetchedAt time.Time
}

// New builds a catalog. An empty remoteURL disables the remote source; a nil store disables the store.
func New(remoteURL string, store CourseStore, ttl time.Duration) *Catalog {
	return &Catalog{
		client: resty.New().SetTimeout(5 * time.Second),
		url:    remoteURL,
		store:  store,
		ttl:    ttl,
		now:    time.Now,
	}
}

// List returns the current course list. It never fails: a broken source falls through to the next.
func (c *Catalog) List(ctx context.Context) []models.Course {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return slices.Clone(c.cached)
	}

	courses := c.load(ctx)
	c.cached = courses
	c.fetchedAt = c.now()
	return slices.Clone(courses)
}

func (c *Catalog) load(ctx context.Context) []models.Course {
	if c.url != "" {
		courses, err := c.fetchRemote(ctx)
		if err != nil {
			slog.Warn("remote catalog unavailable", "url", c.url, "err", err)
		} else if len(courses) > 0 {
			return courses
		}
	}
	if c.store != nil {
		courses, err := c.store.ListCourses(ctx)
		if err != nil {
			slog.Warn("stored catalog unavailable", "err", err)
		} else if len(courses) > 0 {
			return courses
		}
	}
	return slices.Clone(Seed)
}

func (c *Catalog) fetchRemote(ctx context.Context) ([]models.Course, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(c.url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	var courses []models.Course
	if err := json.Unmarshal(resp.Body(), &courses); err == nil {
		return courses, nil
	}
	var envelope struct {
		Data []models.Course `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("decoding course list: %w", err)
	}
	return envelope.Data, nil
}

// Find looks a course up by id.
func (c *Catalog) Find(ctx context.Context, id string) (models.Course, bool) {
	for _, course := range c.List(ctx) {
		if course.ID == id {
			return course, true
		}
	}
	return models.Course{}, false
}

// Save stores a course and drops the cached list.
func (c *Catalog) Save(ctx context.Context, course models.Course) (models.Course, error) {
	if c.store == nil {
		return models.Course{}, fmt.Errorf("catalog has no store")
	}
	saved, err := c.store.SaveCourse(ctx, course)
	if err != nil {
		return models.Course{}, err
	}
	c.Invalidate()
	return saved, nil
}

func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}
