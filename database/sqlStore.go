package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pharmacoach/models"
)

// SQLStore is the gorm backed Store used with the sqlite, postgres and mysql drivers.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore wraps an open connection and migrates the schema.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, now: time.Now}, nil
}

// DB exposes the underlying connection.
func (s *SQLStore) DB() *gorm.DB {
	return s.db
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateEmail
	}
	return err
}

// Users

func (s *SQLStore) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "listing users")
	}
	return users, nil
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return user, translate(err)
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	return user, translate(err)
}

func (s *SQLStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("LOWER(email) = LOWER(?)", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateEmail
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}

func (s *SQLStore) PatchUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}
		if patch.Email != nil {
			var count int64
			err := tx.Model(&models.User{}).
				Where("LOWER(email) = LOWER(?) AND id <> ?", *patch.Email, id).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				return ErrDuplicateEmail
			}
		}
		patch.Apply(&user)
		return tx.Save(&user).Error
	})
	if err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}

func (s *SQLStore) EnrollUser(ctx context.Context, id, courseID string, expiresAt time.Time) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("id = ?", id)
		// sqlite has no row locks; its single connection already serializes writers
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&user).Error; err != nil {
			return err
		}
		user.Enroll(courseID, expiresAt)
		return tx.Save(&user).Error
	})
	if err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}

// Tests

func (s *SQLStore) ListTests(ctx context.Context) ([]models.TestItem, error) {
	tests := []models.TestItem{}
	if err := s.db.WithContext(ctx).Order("created_at").Find(&tests).Error; err != nil {
		return nil, errors.Wrap(err, "listing tests")
	}
	return tests, nil
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (models.TestItem, error) {
	var test models.TestItem
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&test).Error
	return test, translate(err)
}

func (s *SQLStore) CreateTest(ctx context.Context, test models.TestItem) (models.TestItem, error) {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.TestItem{}).Where("id = ?", test.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateID
		}
		return tx.Create(&test).Error
	})
	switch {
	case errors.Is(err, ErrDuplicateID), errors.Is(err, gorm.ErrDuplicatedKey):
		return models.TestItem{}, ErrDuplicateID
	case err != nil:
		return models.TestItem{}, errors.Wrap(err, "creating test")
	}
	return test, nil
}

// Resources

func (s *SQLStore) ListResources(ctx context.Context) ([]models.CourseResource, error) {
	resources := []models.CourseResource{}
	if err := s.db.WithContext(ctx).Order("date").Find(&resources).Error; err != nil {
		return nil, errors.Wrap(err, "listing resources")
	}
	return resources, nil
}

func (s *SQLStore) CreateResource(ctx context.Context, res models.CourseResource) (models.CourseResource, error) {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.Date.IsZero() {
		res.Date = s.now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&res).Error; err != nil {
		return models.CourseResource{}, errors.Wrap(err, "creating resource")
	}
	return res, nil
}

func (s *SQLStore) DeleteResource(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CourseResource{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "deleting resource")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Results

func (s *SQLStore) ListResults(ctx context.Context) ([]models.TestResult, error) {
	results := []models.TestResult{}
	if err := s.db.WithContext(ctx).Order("date").Find(&results).Error; err != nil {
		return nil, errors.Wrap(err, "listing results")
	}
	return results, nil
}

func (s *SQLStore) SaveResult(ctx context.Context, r models.TestResult) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&r).Error
	return errors.Wrap(err, "saving result")
}

// Courses

func (s *SQLStore) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses := []models.Course{}
	if err := s.db.WithContext(ctx).Order("title").Find(&courses).Error; err != nil {
		return nil, errors.Wrap(err, "listing courses")
	}
	return courses, nil
}

func (s *SQLStore) SaveCourse(ctx context.Context, course models.Course) (models.Course, error) {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&course).Error
	if err != nil {
		return models.Course{}, errors.Wrap(err, "saving course")
	}
	return course, nil
}
