package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/service/exporter"
	"github.com/to404hanga/online_judge_duel/service/exporter/common"
)

type StreamableCSVLeaderboardExporter struct {
	log    logger.Logger
	source exporter.Source
}

var _ exporter.Exporter = (*StreamableCSVLeaderboardExporter)(nil)

func NewStreamableCSVLeaderboardExporter(source exporter.Source, log logger.Logger) *StreamableCSVLeaderboardExporter {
	return &StreamableCSVLeaderboardExporter{
		source: source,
		log:    log,
	}
}

func (e *StreamableCSVLeaderboardExporter) Export(ctx context.Context, writer io.Writer) error {
	ectx, cancel := context.WithCancel(ctx)
	defer cancel()

	entryCh, errCh := common.Stream(ectx, e.source)

	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	if err := csvWriter.Write(common.Headers); err != nil {
		return fmt.Errorf("write header failed: %w", err)
	}

	rows := 0
	for entries := range entryCh {
		if err := e.processEntries(csvWriter, entries); err != nil {
			return fmt.Errorf("process entries failed: %w", err)
		}
		rows += len(entries)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("sub goroutine fetch leaderboard failed: %w", err)
	}

	e.log.DebugContext(ctx, "csv leaderboard exported", logger.Int("rows", rows))
	return nil
}

// processEntries 将排行榜条目写入 CSV
func (e *StreamableCSVLeaderboardExporter) processEntries(csvWriter *csv.Writer, entries []model.LeaderboardEntry) error {
	records := make([][]string, 0, len(entries))
	for _, entry := range entries {
		records = append(records, common.Record(entry))
	}
	return csvWriter.WriteAll(records)
}
