package realtime

import (
	"time"

	"github.com/to404hanga/online_judge_duel/entity"
)

const (
	DuelTable     = "duels"
	ActivityTable = "users"
)

// Activity 用户提交动态, 不携带代码
type Activity struct {
	UserID       uint64                  `json:"user_id"`
	SubmissionID string                  `json:"submission_id"`
	Challenge    string                  `json:"challenge"`
	Status       entity.SubmissionStatus `json:"status"`
	Score        int                     `json:"score"`
	Duel         *string                 `json:"duel,omitempty"`
	Timestamp    time.Time               `json:"timestamp"`
}

// NewActivity 由提交记录生成动态
func NewActivity(s *entity.Submission) *Activity {
	return &Activity{
		UserID:       s.UserID,
		SubmissionID: s.ID,
		Challenge:    s.Challenge,
		Status:       s.Status,
		Score:        s.Score,
		Duel:         s.Duel,
		Timestamp:    s.Timestamp,
	}
}
