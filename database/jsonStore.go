package database

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"pharmacoach/models"
)

// document is the on-disk layout of the JSON record store.
type document struct {
	Users     []models.User           `json:"users"`
	Tests     []models.TestItem       `json:"tests"`
	Resources []models.CourseResource `json:"resources"`
	Results   []models.TestResult     `json:"results"`
	Courses   []models.Course         `json:"courses,omitempty"`
}

type writeOp struct {
	ctx   context.Context
	apply func(doc *document) error
	done  chan error
}

// JSONStore keeps the whole record store in one JSON document. Writes are
// queued to a single writer goroutine that applies them to a copy of the
// current document, persists it and only then publishes it to readers.
type JSONStore struct {
	path string
	now  func() time.Time

	mu  sync.RWMutex
	doc *document

	ops    chan writeOp
	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once
}

var _ Store = (*JSONStore)(nil)

// OpenJSONStore loads path (creating an empty document when the file does not exist) and starts the writer.
func OpenJSONStore(path string) (*JSONStore, error) {
	doc := &document{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(strings.TrimSpace(string(data))) > 0 {
			if err := json.Unmarshal(data, doc); err != nil {
				return nil, errors.Wrapf(err, "decoding %s", path)
			}
		}
	case os.IsNotExist(err):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "creating data directory")
		}
	default:
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	s := &JSONStore{
		path:   path,
		now:    time.Now,
		doc:    doc,
		ops:    make(chan writeOp),
		closed: make(chan struct{}),
	}
	if os.IsNotExist(err) {
		if err := s.persist(doc); err != nil {
			return nil, err
		}
	}

	s.wg.Add(1)
	go s.writer()
	return s, nil
}

func (s *JSONStore) writer() {
	defer s.wg.Done()
	for {
		select {
		case op := <-s.ops:
			op.done <- s.commit(op)
		case <-s.closed:
			return
		}
	}
}

func (s *JSONStore) commit(op writeOp) error {
	if err := op.ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	next, err := cloneDocument(s.doc)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := op.apply(next); err != nil {
		return err
	}
	if err := s.persist(next); err != nil {
		return err
	}

	s.mu.Lock()
	s.doc = next
	s.mu.Unlock()
	return nil
}

// persist writes doc next to the target and renames it into place.
func (s *JSONStore) persist(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".db-*.json")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replacing document")
}

// write enqueues fn and waits for the writer to commit it.
func (s *JSONStore) write(ctx context.Context, fn func(doc *document) error) error {
	op := writeOp{ctx: ctx, apply: fn, done: make(chan error, 1)}
	select {
	case s.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.closed:
		return errors.New("json store is closed")
	}
	return <-op.done
}

func (s *JSONStore) read(fn func(doc *document)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.doc)
}

func (s *JSONStore) Close() error {
	s.once.Do(func() { close(s.closed) })
	s.wg.Wait()
	return nil
}

func cloneDocument(doc *document) (*document, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "copying document")
	}
	next := &document{}
	if err := json.Unmarshal(data, next); err != nil {
		return nil, errors.Wrap(err, "copying document")
	}
	return next, nil
}

// Users

func (s *JSONStore) ListUsers(_ context.Context) ([]models.User, error) {
	var users []models.User
	s.read(func(doc *document) {
		users = make([]models.User, 0, len(doc.Users))
		for _, u := range doc.Users {
			users = append(users, u.Clone())
		}
	})
	return users, nil
}

func (s *JSONStore) GetUser(_ context.Context, id string) (models.User, error) {
	var (
		user  models.User
		found bool
	)
	s.read(func(doc *document) {
		if i := indexUser(doc, id); i >= 0 {
			user, found = doc.Users[i].Clone(), true
		}
	})
	if !found {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (s *JSONStore) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	var (
		user  models.User
		found bool
	)
	s.read(func(doc *document) {
		for _, u := range doc.Users {
			if strings.EqualFold(u.Email, email) {
				user, found = u.Clone(), true
				return
			}
		}
	})
	if !found {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (s *JSONStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := s.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	err := s.write(ctx, func(doc *document) error {
		for _, u := range doc.Users {
			if strings.EqualFold(u.Email, user.Email) {
				return ErrDuplicateEmail
			}
		}
		doc.Users = append(doc.Users, user.Clone())
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *JSONStore) PatchUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	var updated models.User
	err := s.write(ctx, func(doc *document) error {
		i := indexUser(doc, id)
		if i < 0 {
			return ErrNotFound
		}
		if patch.Email != nil {
			for j, u := range doc.Users {
				if j != i && strings.EqualFold(u.Email, *patch.Email) {
					return ErrDuplicateEmail
				}
			}
		}
		patch.Apply(&doc.Users[i])
		doc.Users[i].UpdatedAt = s.now().UTC()
		updated = doc.Users[i].Clone()
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return updated, nil
}

func (s *JSONStore) EnrollUser(ctx context.Context, id, courseID string, expiresAt time.Time) (models.User, error) {
	var updated models.User
	err := s.write(ctx, func(doc *document) error {
		i := indexUser(doc, id)
		if i < 0 {
			return ErrNotFound
		}
		doc.Users[i].Enroll(courseID, expiresAt)
		doc.Users[i].UpdatedAt = s.now().UTC()
		updated = doc.Users[i].Clone()
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return updated, nil
}

func indexUser(doc *document, id string) int {
	return slices.IndexFunc(doc.Users, func(u models.User) bool { return u.ID == id })
}

// Tests

func (s *JSONStore) ListTests(_ context.Context) ([]models.TestItem, error) {
	var tests []models.TestItem
	s.read(func(doc *document) {
		tests = make([]models.TestItem, 0, len(doc.Tests))
		for _, t := range doc.Tests {
			tests = append(tests, t.Clone())
		}
	})
	return tests, nil
}

func (s *JSONStore) GetTest(_ context.Context, id string) (models.TestItem, error) {
	var (
		test  models.TestItem
		found bool
	)
	s.read(func(doc *document) {
		for _, t := range doc.Tests {
			if t.ID == id {
				test, found = t.Clone(), true
				return
			}
		}
	})
	if !found {
		return models.TestItem{}, ErrNotFound
	}
	return test, nil
}

func (s *JSONStore) CreateTest(ctx context.Context, test models.TestItem) (models.TestItem, error) {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	if test.CreatedAt.IsZero() {
		test.CreatedAt = s.now().UTC()
	}
	err := s.write(ctx, func(doc *document) error {
		if slices.ContainsFunc(doc.Tests, func(t models.TestItem) bool { return t.ID == test.ID }) {
			return ErrDuplicateID
		}
		doc.Tests = append(doc.Tests, test.Clone())
		return nil
	})
	if err != nil {
		return models.TestItem{}, err
	}
	return test, nil
}

// Resources

func (s *JSONStore) ListResources(_ context.Context) ([]models.CourseResource, error) {
	var resources []models.CourseResource
	s.read(func(doc *document) {
		resources = slices.Clone(doc.Resources)
	})
	if resources == nil {
		resources = []models.CourseResource{}
	}
	return resources, nil
}

func (s *JSONStore) CreateResource(ctx context.Context, res models.CourseResource) (models.CourseResource, error) {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.Date.IsZero() {
		res.Date = s.now().UTC()
	}
	err := s.write(ctx, func(doc *document) error {
		doc.Resources = append(doc.Resources, res)
		return nil
	})
	if err != nil {
		return models.CourseResource{}, err
	}
	return res, nil
}

func (s *JSONStore) DeleteResource(ctx context.Context, id string) error {
	return s.write(ctx, func(doc *document) error {
		i := slices.IndexFunc(doc.Resources, func(r models.CourseResource) bool { return r.ID == id })
		if i < 0 {
			return ErrNotFound
		}
		doc.Resources = slices.Delete(doc.Resources, i, i+1)
		return nil
	})
}

// Results

func (s *JSONStore) ListResults(_ context.Context) ([]models.TestResult, error) {
	var results []models.TestResult
	s.read(func(doc *document) {
		results = slices.Clone(doc.Results)
	})
	if results == nil {
		results = []models.TestResult{}
	}
	return results, nil
}

func (s *JSONStore) SaveResult(ctx context.Context, r models.TestResult) error {
	return s.write(ctx, func(doc *document) error {
		doc.Results = slices.DeleteFunc(doc.Results, func(old models.TestResult) bool {
			return old.UserID == r.UserID && old.TestID == r.TestID
		})
		doc.Results = append(doc.Results, r)
		return nil
	})
}

// Courses

func (s *JSONStore) ListCourses(_ context.Context) ([]models.Course, error) {
	var courses []models.Course
	s.read(func(doc *document) {
		courses = slices.Clone(doc.Courses)
	})
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

func (s *JSONStore) SaveCourse(ctx context.Context, course models.Course) (models.Course, error) {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	course.UpdatedAt = s.now().UTC()
	err := s.write(ctx, func(doc *document) error {
		i := slices.IndexFunc(doc.Courses, func(c models.Course) bool { return c.ID == course.ID })
		if i >= 0 {
			doc.Courses[i] = course
		} else {
			doc.Courses = append(doc.Courses, course)
		}
		return nil
	})
	if err != nil {
		return models.Course{}, err
	}
	return course, nil
}
