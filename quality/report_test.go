package quality

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReportBuckets(t *testing.T) {
	groups := AssembleClusters([]*MasterRecord{
		masterWithScores(2, 100),
		masterWithScores(3, 98, 98),
		masterWithScores(4, 95, 95, 95),
		masterWithScores(5, 90),
		masterWithScores(6, 89),
		masterWithScores(7, 70),
	})
	mapping := FieldMapping{CustomerName: "Name", City: "Town"}
	blockStats := BlockStats{TotalBlocks: 3}

	report := buildReport("run-1", groups, 20, blockStats, mapping, 1500*time.Millisecond)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, ReportStatusOK, report.Status)
	assert.Empty(t, report.Message)
	assert.Equal(t, 6, report.DuplicateGroupCount)
	assert.Equal(t, 9, report.TotalPotentialDuplicates)
	assert.Len(t, report.PotentialDuplicates, 5)

	assert.Equal(t, KPIMetrics{AutoMerge: 4, NeedsReview: 2, NeedsAI: 0}, report.KPIMetrics)

	assert.Equal(t, 20, report.Stats.TotalRecords)
	assert.Equal(t, 2, report.Stats.HighConfidence)
	assert.Equal(t, 2, report.Stats.MediumConfidence)
	assert.Equal(t, 2, report.Stats.LowConfidence)
	assert.Equal(t, blockStats, report.Stats.Blocking)
	assert.Equal(t, int64(1500), report.Stats.ProcessingTimeMs)

	assert.Equal(t, map[string]string{"customer_name": "Name", "city": "Town"}, report.ColumnMap)
}

func TestBuildReportNeedsAI(t *testing.T) {
	// группы со средней оценкой ниже 70 не возникают из анализа, но KPI их учитывает
	groups := []*MasterRecord{{AvgSimilarity: 65, DuplicateCount: 1}}

	report := buildReport("run", groups, 2, BlockStats{}, FieldMapping{CustomerName: "Name"}, 0)

	assert.Equal(t, KPIMetrics{NeedsAI: 1}, report.KPIMetrics)
}

func TestReportJSONShape(t *testing.T) {
	master := masterWithScores(2, 95)
	master.MasterUID = "m-1"
	master.CustomerName = "Acme Corp"
	master.Duplicates[0].UID = "d-1"
	master.Duplicates[0].CustomerName = "ACME CORPORATION"
	report := buildReport("run-1", AssembleClusters([]*MasterRecord{master}), 2, BlockStats{}, FieldMapping{CustomerName: "Name"}, 0)

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, key := range []string{"run_id", "status", "duplicate_group_count", "total_potential_duplicates",
		"duplicates", "potential_duplicates", "kpi_metrics", "stats", "column_map"} {
		assert.Contains(t, decoded, key)
	}

	duplicates := decoded["duplicates"].([]any)
	require.Len(t, duplicates, 1)
	group := duplicates[0].(map[string]any)
	assert.Equal(t, "m-1", group["master_uid"])
	assert.Equal(t, "Acme Corp", group["customer_name"])
	assert.EqualValues(t, 2, group["ExcelRow"])
	assert.EqualValues(t, 95, group["AvgSimilarity"])

	members := group["duplicates"].([]any)
	require.Len(t, members, 1)
	member := members[0].(map[string]any)
	assert.Equal(t, "d-1", member["uid"])
	assert.Equal(t, "ACME CORPORATION", member["customer_name"])
	assert.EqualValues(t, 95, member["Overall_score"])
	assert.Contains(t, member, "Name_score")
	assert.Contains(t, member, "TPI_score")
	assert.Contains(t, member, "IsLowConfidence")
}

func TestEmptyReport(t *testing.T) {
	report := emptyReport("run", FieldMapping{CustomerName: "Name"})

	assert.Equal(t, ReportStatusEmpty, report.Status)
	assert.Equal(t, MessageNothingToProcess, report.Message)
	assert.Equal(t, 0, report.DuplicateGroupCount)
	assert.NotNil(t, report.Duplicates)
	assert.NotNil(t, report.PotentialDuplicates)
}
