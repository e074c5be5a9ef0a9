package model

import (
	"github.com/google/uuid"
	"time"
)

type Account struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Identifier   string    `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string    `gorm:"not null"`
	DisplayName  string    `gorm:"size:64;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Account) TableName() string { return "accounts" }

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	Subject      string
}
