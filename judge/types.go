package judge

import "github.com/to404hanga/online_judge_duel/entity"

const (
	RunPath    = "/run"
	SubmitPath = "/submit"
)

type RunRequest struct {
	Code     string `json:"code" validate:"required"`
	Language string `json:"language" validate:"required"`
	Input    string `json:"input"`
}

type SubmitRequest struct {
	Code      string `json:"code" validate:"required"`
	Language  string `json:"language" validate:"required"`
	Challenge string `json:"challenge" validate:"required"`
	Time      int    `json:"time" validate:"min=0"`   // 单位: 毫秒
	Memory    int    `json:"memory" validate:"min=0"` // 单位: MB
}

// CaseResult 单个测试用例的执行结果
type CaseResult struct {
	ExitStatus int    `json:"exit_status"`
	Time       int64  `json:"time" validate:"min=0"`
	Memory     int64  `json:"memory" validate:"min=0"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	Passed     bool   `json:"passed"`
}

type RunResponse struct {
	Status  string       `json:"status" validate:"required"`
	Results []CaseResult `json:"results" validate:"dive"`
}

// Verdict /submit 的判题结论, score 缺失视为非法响应
type Verdict struct {
	Status  entity.SubmissionStatus `json:"status" validate:"required,oneof=ACCEPTED FAILED TIMEOUT ERROR comp-failed"`
	Score   *int                    `json:"score" validate:"required,min=0"`
	Results []CaseResult            `json:"results" validate:"dive"`
}

// TestCaseResults 转换为提交记录中的用例结果
func (v *Verdict) TestCaseResults() []entity.TestCaseResult {
	res := make([]entity.TestCaseResult, 0, len(v.Results))
	for _, r := range v.Results {
		res = append(res, entity.TestCaseResult{
			ExitStatus: r.ExitStatus,
			Time:       r.Time,
			Memory:     r.Memory,
			Stdout:     r.Stdout,
			Stderr:     r.Stderr,
			Passed:     r.Passed,
		})
	}
	return res
}
