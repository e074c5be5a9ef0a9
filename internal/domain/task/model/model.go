package model

import "time"

type Task struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Owner       string     `gorm:"index;size:64;not null" json:"account"`
	Title       string     `gorm:"not null" json:"title"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	Completed   bool       `gorm:"not null;default:false" json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (Task) TableName() string { return "tasks" }
