package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/striver-24/ai-resume-analyzer-sub000/constants"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/kvstore"
	"github.com/striver-24/ai-resume-analyzer-sub000/internal/pipeline"
)

// Service is a tiny façade over the kvstore that produces XLSX bytes for
// operator exports of completed analyses.
type Service struct {
	kv     kvstore.Store
	logger *slog.Logger
}

func NewService(kv kvstore.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{kv: kv, logger: logger}
}

// ExportJobsXLSX returns an XLSX workbook (as bytes) with one row per job.
// Missing IDs are skipped, not fatal; a partial export is more useful to an
// operator than none.
func (s *Service) ExportJobsXLSX(ctx context.Context, jobIDs []string) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Analyses"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Job ID",
		"Company",
		"Job Title",
		"Status",
		"Overall Score",
		"ATS Score",
		"Failure Reason",
		"Finished At",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	skipped := 0
	for _, id := range jobIDs {
		raw, err := s.kv.Get(ctx, constants.JobKey(id))
		if err != nil {
			if errors.Is(err, kvstore.ErrKeyNotFound) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("load job %s: %w", id, err)
		}
		var job pipeline.Job
		if err := json.Unmarshal(raw, &job); err != nil {
			s.logger.Warn("export.job_decode_failed", "job_id", id, "error", err)
			skipped++
			continue
		}

		overall, ats := scores(job.Feedback)

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, job.ID)
		write(2, job.CompanyName)
		write(3, job.JobTitle)
		write(4, string(job.Status))
		write(5, overall)
		write(6, ats)
		write(7, string(job.FailureReason))
		if job.FinishedAt != nil {
			write(8, job.FinishedAt.Format(time.RFC3339))
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", row-2,
		"skipped", skipped,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// scores pulls the overall and ATS scores out of the feedback object.
// Absent or malformed sections render as empty cells.
func scores(feedback json.RawMessage) (any, any) {
	if len(feedback) == 0 {
		return "", ""
	}
	var v struct {
		OverallScore *float64 `json:"overallScore"`
		ATS          *struct {
			Score *float64 `json:"score"`
		} `json:"ATS"`
	}
	if err := json.Unmarshal(feedback, &v); err != nil {
		return "", ""
	}
	var overall, ats any = "", ""
	if v.OverallScore != nil {
		overall = *v.OverallScore
	}
	if v.ATS != nil && v.ATS.Score != nil {
		ats = *v.ATS.Score
	}
	return overall, ats
}
