package common

import (
	"context"
	"strconv"

	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/service/exporter"
)

const BatchSize = 1000

var Headers = []string{
	"排名",
	"用户ID",
	"总分",
	"通过题目数",
}

// Record 将排行榜条目转换为一行导出数据
func Record(entry model.LeaderboardEntry) []string {
	return []string{
		strconv.Itoa(entry.Rank),             // 排名
		strconv.FormatUint(entry.UserID, 10), // 用户ID
		strconv.Itoa(entry.Total),            // 总分
		strconv.Itoa(entry.Solved),           // 通过题目数
	}
}

// Stream 在子 goroutine 中分页拉取排行榜, entryCh 关闭表示拉取结束, 出错时错误写入 errCh
func Stream(ctx context.Context, source exporter.Source) (<-chan []model.LeaderboardEntry, <-chan error) {
	entryCh := make(chan []model.LeaderboardEntry, 3)
	errCh := make(chan error, 1)

	go func() {
		defer close(entryCh)
		defer close(errCh)
		for page := 1; ; page++ {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			entries, err := source.Page(ctx, page, BatchSize)
			if err != nil {
				errCh <- err
				return
			}
			if len(entries) == 0 {
				return
			}

			select {
			case entryCh <- entries:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
			if len(entries) < BatchSize {
				return
			}
		}
	}()

	return entryCh, errCh
}
