package xlsx

import (
	"context"
	"fmt"
	"io"

	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/service/exporter"
	"github.com/to404hanga/online_judge_duel/service/exporter/common"
	"github.com/xuri/excelize/v2"
)

const SheetName = "排行榜"

type StreamableXLSXLeaderboardExporter struct {
	log    logger.Logger
	source exporter.Source
}

var _ exporter.Exporter = (*StreamableXLSXLeaderboardExporter)(nil)

func NewStreamableXLSXLeaderboardExporter(source exporter.Source, log logger.Logger) *StreamableXLSXLeaderboardExporter {
	return &StreamableXLSXLeaderboardExporter{
		source: source,
		log:    log,
	}
}

func (e *StreamableXLSXLeaderboardExporter) Export(ctx context.Context, writer io.Writer) error {
	ectx, cancel := context.WithCancel(ctx)
	defer cancel()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.log.ErrorContext(ctx, "close excel file failed", logger.Error(err))
		}
	}()

	// 新文件自带 Sheet1, 直接重命名
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet failed: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("create stream writer failed: %w", err)
	}
	if err = e.writeHeader(f, sw); err != nil {
		return fmt.Errorf("write header failed: %w", err)
	}

	entryCh, errCh := common.Stream(ectx, e.source)

	currentRow := 2 // 第一行是表头
	for entries := range entryCh {
		if err = e.processEntries(sw, entries, &currentRow); err != nil {
			return fmt.Errorf("process entries failed: %w", err)
		}
	}
	if err = <-errCh; err != nil {
		return fmt.Errorf("sub goroutine fetch leaderboard failed: %w", err)
	}

	if err = sw.Flush(); err != nil {
		return fmt.Errorf("flush stream writer failed: %w", err)
	}
	if err = f.Write(writer); err != nil {
		return fmt.Errorf("write excel file failed: %w", err)
	}
	return nil
}

// processEntries 逐行写入排行榜条目
func (e *StreamableXLSXLeaderboardExporter) processEntries(sw *excelize.StreamWriter, entries []model.LeaderboardEntry, currentRow *int) error {
	for _, entry := range entries {
		cell, err := excelize.CoordinatesToCellName(1, *currentRow)
		if err != nil {
			return fmt.Errorf("get cell name failed: %w", err)
		}
		row := []any{
			entry.Rank,   // 排名
			entry.UserID, // 用户ID
			entry.Total,  // 总分
			entry.Solved, // 通过题目数
		}
		if err = sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("set row failed: %w", err)
		}
		*currentRow++
	}
	return nil
}

// writeHeader 写入表头并设置样式与列宽
func (e *StreamableXLSXLeaderboardExporter) writeHeader(f *excelize.File, sw *excelize.StreamWriter) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E0E0E0"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style failed: %w", err)
	}

	// 列宽必须在写入任何行之前设置
	if err = sw.SetColWidth(1, len(common.Headers), 15); err != nil {
		return fmt.Errorf("set column width failed: %w", err)
	}

	row := make([]any, 0, len(common.Headers))
	for _, header := range common.Headers {
		row = append(row, excelize.Cell{StyleID: headerStyle, Value: header})
	}
	if err = sw.SetRow("A1", row); err != nil {
		return fmt.Errorf("set header row failed: %w", err)
	}
	return nil
}
