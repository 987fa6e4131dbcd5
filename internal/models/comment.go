package models

import "gorm.io/gorm"

type Comment struct {
	gorm.Model

	TaskID uint   `gorm:"not null;index"`
	UserID uint   `gorm:"not null;index"`
	Body   string `gorm:"type:text;not null"`

	// Relationships
	Task Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
