package entity

import "time"

// User 用户的提交历史, 资料由用户服务维护, 这里只保存 submissions
type User struct {
	ID          uint64         `json:"id" gorm:"column:id;primaryKey;autoIncrement:false"`
	Submissions SubmissionList `json:"submissions" gorm:"column:submissions;type:json"`
	Version     int64          `json:"version" gorm:"column:version;not null;default:0"` // 乐观锁
	CreatedAt   time.Time      `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}
