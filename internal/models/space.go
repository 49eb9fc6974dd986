package models

import "time"

// Space is a physical room or area that elements can be located in
type Space struct {
	ID          string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	ImageRef    string    `gorm:"type:text" json:"image_ref,omitempty"`
	Annotations []Rect    `gorm:"type:text;serializer:json" json:"annotations,omitempty"`
	CreatedAt   time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

func (Space) TableName() string {
	return "spaces"
}
