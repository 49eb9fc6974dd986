package models

import "time"

// DeleteLog records a physically deleted element
type DeleteLog struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ElementID  string    `gorm:"type:varchar(64);not null;index" json:"element_id"`
	Name       string    `gorm:"type:varchar(255)" json:"name"`
	TaskCount  int       `gorm:"type:int" json:"task_count"`
	ArchivedAt time.Time `gorm:"type:datetime" json:"archived_at"`
	DeletedAt  time.Time `gorm:"type:datetime;not null;autoCreateTime;index" json:"deleted_at"`
	Reason     string    `gorm:"type:varchar(50);not null" json:"reason"`
}

func (DeleteLog) TableName() string {
	return "delete_logs"
}

const (
	DeleteReasonExpired = "expired_retention"
	DeleteReasonManual  = "manual_deletion"
)
