package model

import "time"

// Recipient value that addresses every connected account.
const RecipientAll = "all"

type Message struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Sender    string `gorm:"index;size:64;not null"`
	Content   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (Message) TableName() string { return "messages" }

// MessageView is a logged message joined with the sender's current display name.
type MessageView struct {
	ID        int64     `json:"-"`
	Account   string    `json:"account"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Frame is an inbound chat frame.
type Frame struct {
	To      string `json:"to"`
	Message string `json:"message"`
}
