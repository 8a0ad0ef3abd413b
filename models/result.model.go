package models

import "time"

// TestResult is the latest submission of one user for one test.
type TestResult struct {
	UserID         string    `json:"userId" gorm:"primaryKey;size:64"`
	TestID         string    `json:"testId" gorm:"primaryKey;size:64"`
	CourseID       string    `json:"courseId" gorm:"index;size:64"`
	TestTitle      string    `json:"testTitle"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Date           time.Time `json:"date"`
}
