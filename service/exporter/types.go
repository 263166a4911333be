package exporter

import (
	"context"
	"io"

	"github.com/to404hanga/online_judge_duel/model"
)

// Source 分页读取排行榜
type Source interface {
	Page(ctx context.Context, page, pageSize int) ([]model.LeaderboardEntry, error)
}

type Exporter interface {
	Export(ctx context.Context, writer io.Writer) error
}
