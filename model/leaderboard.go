package model

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID uint64 `json:"user_id"`
	Total  int    `json:"total"`  // 各题最高分之和
	Solved int    `json:"solved"` // 有 ACCEPTED 提交的题目数
}

type GetLeaderboardParam struct {
	CommonParam `json:"-"`
	PageParam
}

type GetLeaderboardResponse struct {
	List     []LeaderboardEntry `json:"list"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

type ExportLeaderboardParam struct {
	CommonParam `json:"-"`

	Format string `form:"format" binding:"required,oneof=csv xlsx"`
}
