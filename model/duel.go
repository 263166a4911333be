package model

import "github.com/to404hanga/online_judge_duel/entity"

type CreateDuelParam struct {
	CommonParam `json:"-"`

	TimeLimit  int      `json:"time_limit" binding:"required,min=1"` // 单位: 秒
	Challenges []string `json:"challenges" binding:"omitempty,max=10,dive,required,max=128"`
}

type JoinDuelParam struct {
	CommonParam `json:"-"`

	DuelID string `json:"duel_id" binding:"required,uuid"`
}

type GetDuelParam struct {
	CommonParam `json:"-"`

	DuelID string `form:"duel_id" binding:"required,uuid"`
}

type CompleteDuelParam struct {
	CommonParam `json:"-"`

	DuelID string `json:"duel_id" binding:"required,uuid"`
}

type GetUserDuelListParam struct {
	CommonParam `json:"-"`
	PageParam

	UserID uint64 `form:"user_id"` // 为空时查询操作人自己
}

type GetUserDuelListResponse struct {
	List     []entity.Duel `json:"list"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type GetDuelOutcomeParam struct {
	CommonParam `json:"-"`

	DuelID string `form:"duel_id" binding:"required,uuid"`
}

type DuelScores struct {
	User1 int `json:"user1"`
	User2 int `json:"user2"`
}

// DuelOutcome 对战结果, 每次由提交历史重新计算, 不落库
type DuelOutcome struct {
	DuelID   string            `json:"duel_id"`
	Status   entity.DuelStatus `json:"status"`
	User1ID  uint64            `json:"user1_id"`
	User2ID  *uint64           `json:"user2_id"`
	WinnerID *uint64           `json:"winner_id"` // 平局或未结束时为空
	Scores   DuelScores        `json:"scores"`
	User1    map[string]int    `json:"user1_best"` // 各题最高分
	User2    map[string]int    `json:"user2_best"`
	Final    bool              `json:"final"` // 对战已结束, 结果不再变化
}

type DuelWSParam struct {
	CommonParam `json:"-"`

	DuelID string `form:"duel_id" binding:"required,uuid"`
}

type ActivityWSParam struct {
	CommonParam `json:"-"`
}
