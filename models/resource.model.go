package models

import "time"

// Resource types
const (
	ResourceVideo = "video"
	ResourceLive  = "live"
)

// CourseResource is a video or live-class link scoped to a course.
type CourseResource struct {
	ID       string    `json:"id" gorm:"primaryKey;size:64"`
	CourseID string    `json:"courseId" gorm:"index;size:64"`
	Title    string    `json:"title"`
	Type     string    `json:"type" gorm:"size:16"`
	URL      string    `json:"url"`
	Date     time.Time `json:"date"`
}
