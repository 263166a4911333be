package model

type SubmitDuelChallengeParam struct {
	CommonParam `json:"-"`

	Challenge string  `json:"challenge" binding:"required,max=128"`
	Code      string  `json:"code" binding:"required"`
	Language  string  `json:"language" binding:"required,max=32"`
	DuelID    *string `json:"duel_id" binding:"omitempty,uuid"` // 为空时为普通练习提交
}

type RunCodeParam struct {
	CommonParam `json:"-"`

	Code     string `json:"code" binding:"required"`
	Language string `json:"language" binding:"required,max=32"`
	Input    string `json:"input"`
}
