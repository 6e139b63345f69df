package entity

import (
	"time"
)

type User struct {
	UserID       string    `gorm:"primaryKey;type:uuid" json:"user_id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash []byte    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	Jobs         []Job     `gorm:"foreignKey:UserID" json:"-"`
}
