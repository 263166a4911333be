package constants

const (
	CreateDuelPath      = "/CreateDuel"      // 创建对战
	JoinDuelPath        = "/JoinDuel"        // 加入对战
	GetDuelPath         = "/GetDuel"         // 获取对战
	CompleteDuelPath    = "/CompleteDuel"    // 结束对战
	GetUserDuelListPath = "/GetUserDuelList" // 获取用户对战列表
	GetDuelOutcomePath  = "/GetDuelOutcome"  // 获取对战比分
)

const (
	SubmitDuelChallengePath = "/SubmitDuelChallenge" // 提交题目
	RunCodePath             = "/RunCode"             // 运行代码
)

const (
	GetLeaderboardPath    = "/GetLeaderboard"    // 获取排行榜
	ExportLeaderboardPath = "/ExportLeaderboard" // 导出排行榜
)

const (
	DuelWSPath     = "/duel/ws"     // 订阅单个对战的变更
	ActivityWSPath = "/activity/ws" // 订阅全站提交动态
)
