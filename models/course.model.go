package models

import "time"

// Course is a purchasable exam-preparation track.
type Course struct {
	ID           string    `json:"id" gorm:"primaryKey;size:64"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Price        float64   `json:"price" gorm:"default:0"`
	ValidityDays int       `json:"validityDays" gorm:"default:0"`
	Category     string    `json:"category"`
	Icon         string    `json:"icon"`
	Color        string    `json:"color"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
