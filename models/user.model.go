package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// Roles
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Registration statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type User struct {
	ID              string                      `json:"id" gorm:"primaryKey;size:64"`
	Name            string                      `json:"name" gorm:"default:''"`
	Email           string                      `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password        string                      `json:"password,omitempty" gorm:"not null"`
	Role            string                      `json:"role" gorm:"size:16;default:'student'"`
	Status          string                      `json:"status" gorm:"size:16;default:'pending'"`
	EnrolledCourses datatypes.JSONSlice[string] `json:"enrolledCourses"`
	CourseExpiry    map[string]time.Time        `json:"courseExpiry" gorm:"serializer:json"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) IsApproved() bool {
	return u.Status == StatusApproved
}

func (u User) IsEnrolled(courseID string) bool {
	return slices.Contains(u.EnrolledCourses, courseID)
}

// Sanitized returns a copy safe to send to clients.
func (u User) Sanitized() User {
	c := u.Clone()
	c.Password = ""
	return c
}

// Clone deep-copies the list and map fields.
func (u User) Clone() User {
	if u.EnrolledCourses != nil {
		u.EnrolledCourses = slices.Clone(u.EnrolledCourses)
	}
	if u.CourseExpiry != nil {
		expiry := make(map[string]time.Time, len(u.CourseExpiry))
		for k, v := range u.CourseExpiry {
			expiry[k] = v
		}
		u.CourseExpiry = expiry
	}
	return u
}

// Enroll adds courseID to the enrolled courses (once) and sets its expiry.
func (u *User) Enroll(courseID string, expiresAt time.Time) {
	if !u.IsEnrolled(courseID) {
		u.EnrolledCourses = append(u.EnrolledCourses, courseID)
	}
	if u.CourseExpiry == nil {
		u.CourseExpiry = make(map[string]time.Time, 1)
	}
	u.CourseExpiry[courseID] = expiresAt
}

// UserPatch is a merge patch for a User: nil fields are left untouched.
// CourseExpiry and EnrolledCourses replace the stored value as a whole.
type UserPatch struct {
	Name            *string              `json:"name"`
	Email           *string              `json:"email"`
	Password        *string              `json:"password"`
	Role            *string              `json:"role"`
	Status          *string              `json:"status"`
	EnrolledCourses *[]string            `json:"enrolledCourses"`
	CourseExpiry    map[string]time.Time `json:"courseExpiry"`
}

func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil && p.Role == nil &&
		p.Status == nil && p.EnrolledCourses == nil && p.CourseExpiry == nil
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Password != nil {
		u.Password = *p.Password
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.EnrolledCourses != nil {
		u.EnrolledCourses = slices.Clone(*p.EnrolledCourses)
	}
	if p.CourseExpiry != nil {
		expiry := make(map[string]time.Time, len(p.CourseExpiry))
		for k, v := range p.CourseExpiry {
			expiry[k] = v
		}
		u.CourseExpiry = expiry
	}
}
