package models

import "gorm.io/gorm"

type WaitlistEntry struct {
	gorm.Model
	Email     string `gorm:"not null;unique;index"`
	Variant   string `gorm:"type:char(1);not null;index"`
	SourceIP  string
	UserAgent string
}
