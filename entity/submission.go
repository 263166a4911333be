package entity

import "time"

type SubmissionStatus string

const (
	SubmissionStatusAccepted   SubmissionStatus = "ACCEPTED"
	SubmissionStatusFailed     SubmissionStatus = "FAILED"
	SubmissionStatusTimeout    SubmissionStatus = "TIMEOUT"
	SubmissionStatusError      SubmissionStatus = "ERROR"
	SubmissionStatusCompFailed SubmissionStatus = "comp-failed"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusAccepted, SubmissionStatusFailed, SubmissionStatusTimeout,
		SubmissionStatusError, SubmissionStatusCompFailed:
		return true
	}
	return false
}

// TestCaseResult 单个测试用例的判题结果
type TestCaseResult struct {
	ExitStatus int    `json:"exit_status"`
	Time       int64  `json:"time"`   // 单位: 毫秒
	Memory     int64  `json:"memory"` // 单位: KB
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	Passed     bool   `json:"passed"`
}

// Submission 提交记录, 仅追加, 创建后不再修改
type Submission struct {
	ID        string           `json:"id"`
	UserID    uint64           `json:"user_id"`
	Challenge string           `json:"challenge"`
	Language  string           `json:"language"`
	Code      string           `json:"code"`
	Timestamp time.Time        `json:"timestamp"`
	Status    SubmissionStatus `json:"status"`
	Score     int              `json:"score"`
	Result    []TestCaseResult `json:"result"`
	Duel      *string          `json:"duel,omitempty"`
}

// InDuel 是否属于指定对战
func (s *Submission) InDuel(duelID string) bool {
	return s.Duel != nil && *s.Duel == duelID
}
