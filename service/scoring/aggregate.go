// Package scoring 计算"每题取最高, 各题求和"的聚合分数, 排行榜与对战结算共用同一套规则.
package scoring

import (
	"sort"

	"github.com/to404hanga/online_judge_duel/entity"
)

// Filter 限定参与聚合的提交范围
type Filter func(s *entity.Submission) bool

// ForDuel 只统计带有该对战标记的提交
func ForDuel(duelID string) Filter {
	return func(s *entity.Submission) bool {
		return s.InDuel(duelID)
	}
}

// ForUser 只统计该用户的提交
func ForUser(userID uint64) Filter {
	return func(s *entity.Submission) bool {
		return s.UserID == userID
	}
}

type Aggregate struct {
	PerChallengeBest map[string]int `json:"per_challenge_best"`
	Total            int            `json:"total"`
}

// Challenges 按 slug 排序的已得分题目列表
func (a Aggregate) Challenges() []string {
	res := make([]string, 0, len(a.PerChallengeBest))
	for slug := range a.PerChallengeBest {
		res = append(res, slug)
	}
	sort.Strings(res)
	return res
}

// Calculate 仅统计 ACCEPTED 提交, 同一题目取最高分, 对输入顺序不敏感
func Calculate(submissions []entity.Submission, filters ...Filter) Aggregate {
	best := make(map[string]int)
	for i := range submissions {
		s := &submissions[i]
		if s.Status != entity.SubmissionStatusAccepted {
			continue
		}
		if !match(s, filters) {
			continue
		}
		if cur, ok := best[s.Challenge]; !ok || s.Score > cur {
			best[s.Challenge] = s.Score
		}
	}

	total := 0
	for _, score := range best {
		total += score
	}
	return Aggregate{
		PerChallengeBest: best,
		Total:            total,
	}
}

func match(s *entity.Submission, filters []Filter) bool {
	for _, f := range filters {
		if !f(s) {
			return false
		}
	}
	return true
}
