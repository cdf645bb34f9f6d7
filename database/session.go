package database

import (
	"time"
)

type Session struct {
	Model
	UserId uint      `json:"user_id" gorm:"index"`
	User   User      `json:"-" gorm:"foreignKey:UserId;references:ID;constraint:OnUpdate:CASCADE,OnDelete:NO ACTION;"`
	Token  string    `gorm:"column:token;uniqueIndex;type:varchar(64)"`
	Expiry time.Time `gorm:"column:expiry;index"`
}
