package factory

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/online_judge_duel/model"
	"github.com/to404hanga/online_judge_duel/pkg/logger"
	"github.com/to404hanga/online_judge_duel/service/exporter/common"
	"github.com/to404hanga/online_judge_duel/service/exporter/xlsx"
	"github.com/xuri/excelize/v2"
)

type sliceSource struct {
	entries []model.LeaderboardEntry
	err     error
}

func (s *sliceSource) Page(_ context.Context, page, pageSize int) ([]model.LeaderboardEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	start := (page - 1) * pageSize
	if start >= len(s.entries) {
		return nil, nil
	}
	end := min(start+pageSize, len(s.entries))
	return s.entries[start:end], nil
}

func entries(n int) []model.LeaderboardEntry {
	res := make([]model.LeaderboardEntry, 0, n)
	for i := 0; i < n; i++ {
		res = append(res, model.LeaderboardEntry{
			Rank:   i + 1,
			UserID: uint64(1000 + i),
			Total:  n - i,
			Solved: 1,
		})
	}
	return res
}

func TestGetExporter(t *testing.T) {
	f := NewExporterFactory(&sliceSource{}, logger.NewNopLogger())
	assert.NotNil(t, f.GetExporter(CSVExporter))
	assert.Same(t, f.GetExporter(CSVExporter), f.GetExporter(CSVExporter))
	assert.NotNil(t, f.GetExporter(XLSXExporter))
	assert.Nil(t, f.GetExporter("pdf"))
}

func TestCSVExportAcrossBatches(t *testing.T) {
	n := common.BatchSize + 5
	f := NewExporterFactory(&sliceSource{entries: entries(n)}, logger.NewNopLogger())

	var buf bytes.Buffer
	require.NoError(t, f.GetExporter(CSVExporter).Export(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, n+1)
	assert.Equal(t, common.Headers, records[0])
	assert.Equal(t, []string{"1", "1000", "1005", "1"}, records[1])
	assert.Equal(t, []string{"1005", "2004", "1", "1"}, records[n])
}

func TestXLSXExport(t *testing.T) {
	f := NewExporterFactory(&sliceSource{entries: entries(3)}, logger.NewNopLogger())

	var buf bytes.Buffer
	require.NoError(t, f.GetExporter(XLSXExporter).Export(context.Background(), &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(xlsx.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, common.Headers, rows[0])
	assert.Equal(t, []string{"1", "1000", "3", "1"}, rows[1])
}

func TestExportSurfacesSourceError(t *testing.T) {
	boom := errors.New("redis down")
	f := NewExporterFactory(&sliceSource{err: boom}, logger.NewNopLogger())

	for _, typ := range []ExporterType{CSVExporter, XLSXExporter} {
		err := f.GetExporter(typ).Export(context.Background(), &bytes.Buffer{})
		assert.ErrorIs(t, err, boom, string(typ))
	}
}
