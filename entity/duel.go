package entity

import (
	"time"
)

type DuelStatus string

const (
	DuelStatusPending   DuelStatus = "pending"   // 等待对手加入
	DuelStatusActive    DuelStatus = "active"    // 对战中
	DuelStatusCompleted DuelStatus = "completed" // 已结束
	DuelStatusAbandoned DuelStatus = "abandoned" // 超时无人加入, 已废弃
)

// rank 状态在生命周期中的先后次序, 只允许向前推进
func (s DuelStatus) rank() int {
	switch s {
	case DuelStatusPending:
		return 0
	case DuelStatusActive:
		return 1
	case DuelStatusCompleted, DuelStatusAbandoned:
		return 2
	}
	return -1
}

// Rank 供订阅端判断通知新旧
func (s DuelStatus) Rank() int {
	return s.rank()
}

func (s DuelStatus) Valid() bool {
	return s.rank() >= 0
}

func (s DuelStatus) IsTerminal() bool {
	return s == DuelStatusCompleted || s == DuelStatusAbandoned
}

// CanTransitionTo 合法迁移: pending->active, active->completed, pending->abandoned
func (s DuelStatus) CanTransitionTo(next DuelStatus) bool {
	switch s {
	case DuelStatusPending:
		return next == DuelStatusActive || next == DuelStatusAbandoned
	case DuelStatusActive:
		return next == DuelStatusCompleted
	}
	return false
}

func (s DuelStatus) String() string {
	return string(s)
}

type Duel struct {
	ID             string     `json:"id" gorm:"column:id;primaryKey;type:varchar(36)"`
	User1ID        uint64     `json:"user1_id" gorm:"column:user1_id;not null;index"`
	User2ID        *uint64    `json:"user2_id" gorm:"column:user2_id;index"`
	Status         DuelStatus `json:"status" gorm:"column:status;type:varchar(16);not null;index:idx_status_ended_at"`
	TimeLimit      int        `json:"time_limit" gorm:"column:time_limit;not null"` // 单位: 秒
	StartedAt      *time.Time `json:"started_at" gorm:"column:started_at"`
	EndedAt        *time.Time `json:"ended_at" gorm:"column:ended_at;index:idx_status_ended_at"`
	ChallengesSlug StringList `json:"challenges_slug" gorm:"column:challenges_slug;type:json"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Duel) TableName() string {
	return "duels"
}

// IsParticipant 判断用户是否为对战双方之一
func (d *Duel) IsParticipant(userID uint64) bool {
	if d.User1ID == userID {
		return true
	}
	return d.User2ID != nil && *d.User2ID == userID
}

// HasChallenge 判断题目是否分配给了该对战
func (d *Duel) HasChallenge(slug string) bool {
	for _, s := range d.ChallengesSlug {
		if s == slug {
			return true
		}
	}
	return false
}

// Deadline 对战截止时间, 未开始时返回 nil
func (d *Duel) Deadline() *time.Time {
	if d.StartedAt == nil {
		return nil
	}
	t := d.StartedAt.Add(time.Duration(d.TimeLimit) * time.Second)
	return &t
}

// Overdue 对战中且已过截止时间
func (d *Duel) Overdue(now time.Time) bool {
	return d.Status == DuelStatusActive && d.EndedAt != nil && !d.EndedAt.After(now)
}
