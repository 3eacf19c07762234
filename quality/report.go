package quality

import "time"

// Статусы отчета
const (
	ReportStatusOK    = "ok"
	ReportStatusEmpty = "empty"
)

// MessageNothingToProcess сообщение для пустой таблицы
const MessageNothingToProcess = "nothing to process"

// Пороги KPI и статистики уверенности. Это два независимых взгляда на одни группы.
const (
	kpiAutoMergeThreshold   = 90
	kpiNeedsReviewThreshold = 70

	statsHighConfidenceThreshold   = 98
	statsMediumConfidenceThreshold = 90
)

// Report результат одного анализа
type Report struct {
	RunID                    string            `json:"run_id" yaml:"run_id"`
	Status                   string            `json:"status" yaml:"status"`
	Message                  string            `json:"message,omitempty" yaml:"message,omitempty"`
	DuplicateGroupCount      int               `json:"duplicate_group_count" yaml:"duplicate_group_count"`
	TotalPotentialDuplicates int               `json:"total_potential_duplicates" yaml:"total_potential_duplicates"`
	Duplicates               []*MasterRecord   `json:"duplicates" yaml:"duplicates"`
	PotentialDuplicates      []*MasterRecord   `json:"potential_duplicates" yaml:"potential_duplicates"`
	KPIMetrics               KPIMetrics        `json:"kpi_metrics" yaml:"kpi_metrics"`
	Stats                    Stats             `json:"stats" yaml:"stats"`
	ColumnMap                map[string]string `json:"column_map" yaml:"column_map"`
}

// KPIMetrics распределение групп по дальнейшему действию
type KPIMetrics struct {
	AutoMerge   int `json:"auto_merge" yaml:"auto_merge"`
	NeedsReview int `json:"needs_review" yaml:"needs_review"`
	NeedsAI     int `json:"needs_ai" yaml:"needs_ai"`
}

// Stats сводная статистика анализа
type Stats struct {
	TotalRecords     int        `json:"total_records" yaml:"total_records"`
	HighConfidence   int        `json:"high_confidence" yaml:"high_confidence"`
	MediumConfidence int        `json:"medium_confidence" yaml:"medium_confidence"`
	LowConfidence    int        `json:"low_confidence" yaml:"low_confidence"`
	Blocking         BlockStats `json:"blocking" yaml:"blocking"`
	ProcessingTimeMs int64      `json:"processing_time_ms" yaml:"processing_time_ms"`
}

// buildReport собирает отчет по отсортированным группам
func buildReport(runID string, groups []*MasterRecord, totalRecords int, blockStats BlockStats, mapping FieldMapping, elapsed time.Duration) *Report {
	report := &Report{
		RunID:               runID,
		Status:              ReportStatusOK,
		DuplicateGroupCount: len(groups),
		Duplicates:          groups,
		PotentialDuplicates: make([]*MasterRecord, 0),
		ColumnMap:           mapping.AsMap(),
		Stats: Stats{
			TotalRecords:     totalRecords,
			Blocking:         blockStats,
			ProcessingTimeMs: elapsed.Milliseconds(),
		},
	}
	if report.Duplicates == nil {
		report.Duplicates = make([]*MasterRecord, 0)
	}

	for _, group := range groups {
		report.TotalPotentialDuplicates += group.DuplicateCount

		if group.AvgSimilarity < 100 || group.IsLowConfidenceGroup {
			report.PotentialDuplicates = append(report.PotentialDuplicates, group)
		}

		switch {
		case group.AvgSimilarity >= kpiAutoMergeThreshold:
			report.KPIMetrics.AutoMerge++
		case group.AvgSimilarity >= kpiNeedsReviewThreshold:
			report.KPIMetrics.NeedsReview++
		default:
			report.KPIMetrics.NeedsAI++
		}

		switch {
		case group.AvgSimilarity >= statsHighConfidenceThreshold:
			report.Stats.HighConfidence++
		case group.AvgSimilarity >= statsMediumConfidenceThreshold:
			report.Stats.MediumConfidence++
		}
		if group.IsLowConfidenceGroup {
			report.Stats.LowConfidence++
		}
	}

	return report
}

// emptyReport отчет для таблицы без строк
func emptyReport(runID string, mapping FieldMapping) *Report {
	return &Report{
		RunID:               runID,
		Status:              ReportStatusEmpty,
		Message:             MessageNothingToProcess,
		Duplicates:          make([]*MasterRecord, 0),
		PotentialDuplicates: make([]*MasterRecord, 0),
		ColumnMap:           mapping.AsMap(),
	}
}
