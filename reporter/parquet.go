package reporter

import (
	"bytes"
	"fmt"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"demandflow/models"
)

// opportunityRecord defines the parquet schema for archived opportunity rows.
// One row per (run, opportunity); the run metadata is denormalized onto every
// row so archives can be queried without a join.
type opportunityRecord struct {
	RunID                   string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	GeneratedAt             string  `parquet:"name=generated_at, type=BYTE_ARRAY, convertedtype=UTF8"`
	StoreName               string  `parquet:"name=store_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	TenantID                string  `parquet:"name=tenant_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	PositioningMode         string  `parquet:"name=positioning_mode, type=BYTE_ARRAY, convertedtype=UTF8"`
	Keyword                 string  `parquet:"name=keyword, type=BYTE_ARRAY, convertedtype=UTF8"`
	ScoreTotal              float64 `parquet:"name=score_total, type=DOUBLE"`
	SearchScore             float64 `parquet:"name=search_score, type=DOUBLE"`
	TrendScore              float64 `parquet:"name=trend_score, type=DOUBLE"`
	SustainedTrendScore     float64 `parquet:"name=sustained_trend_score, type=DOUBLE"`
	MarketplaceScore        float64 `parquet:"name=marketplace_score, type=DOUBLE"`
	QualityFitScore         float64 `parquet:"name=quality_fit_score, type=DOUBLE"`
	InventoryRecommendation string  `parquet:"name=inventory_recommendation, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// memFileWriter backs the parquet writer with an in-memory buffer so uploads
// never touch local disk.
type memFileWriter struct{ buffer *bytes.Buffer }

func newMemFileWriter() *memFileWriter { return &memFileWriter{buffer: &bytes.Buffer{}} }

func (m *memFileWriter) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFileWriter) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFileWriter) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFileWriter) Read([]byte) (int, error)                  { return 0, nil }
func (m *memFileWriter) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFileWriter) Close() error                              { return nil }
func (m *memFileWriter) Bytes() []byte                             { return m.buffer.Bytes() }

// BuildParquet encodes the report's opportunities as a snappy-compressed
// parquet file.
func BuildParquet(report *models.ProductDiscoveryReport) ([]byte, error) {
	mw := newMemFileWriter()
	pw, err := writer.NewParquetWriter(mw, new(opportunityRecord), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, item := range report.Opportunities {
		rec := opportunityRecord{
			RunID:                   report.RunID,
			GeneratedAt:             report.GeneratedAt,
			StoreName:               report.Profile.StoreName,
			TenantID:                report.Profile.TenantID,
			PositioningMode:         report.Profile.PositioningMode,
			Keyword:                 item.Keyword,
			ScoreTotal:              item.ScoreTotal,
			SearchScore:             item.SearchScore,
			TrendScore:              item.TrendScore,
			SustainedTrendScore:     item.SustainedTrendScore,
			MarketplaceScore:        item.MarketplaceScore,
			QualityFitScore:         item.QualityFitScore,
			InventoryRecommendation: item.InventoryRecommendation,
		}
		if err := pw.Write(rec); err != nil {
			return nil, fmt.Errorf("failed to write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return mw.Bytes(), nil
}
