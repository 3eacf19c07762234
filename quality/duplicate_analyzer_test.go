package quality

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"dedupserver/normalization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestAnalyzer(t *testing.T, opts Options) *DuplicateAnalyzer {
	t.Helper()
	return NewDuplicateAnalyzer(zaptest.NewLogger(t), opts)
}

func TestAnalyzeAcmeScenario(t *testing.T) {
	table := &Table{
		Columns: []string{"Name", "Street", "Town"},
		Rows: [][]string{
			{"Acme Corp", "123 Main St", "Springfield"},
			{"ACME CORPORATION", "123 Main Street", "Springfield"},
		},
	}
	mapping := FieldMapping{CustomerName: "Name", Address: "Street", City: "Town"}

	report, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), table, mapping)
	require.NoError(t, err)

	assert.Equal(t, ReportStatusOK, report.Status)
	assert.NotEmpty(t, report.RunID)
	require.Equal(t, 1, report.DuplicateGroupCount)
	require.Len(t, report.Duplicates, 1)

	master := report.Duplicates[0]
	assert.Equal(t, 2, master.ExcelRow)
	assert.Equal(t, "Acme Corp", master.CustomerName)
	assert.Equal(t, "123 Main St", master.Address)
	assert.NotEmpty(t, master.MasterUID)
	require.Len(t, master.Duplicates, 1)

	duplicate := master.Duplicates[0]
	assert.Equal(t, 3, duplicate.ExcelRow)
	assert.Equal(t, "ACME CORPORATION", duplicate.CustomerName)
	assert.GreaterOrEqual(t, duplicate.OverallScore, 90)
	assert.False(t, duplicate.IsLowConfidence)
	assert.Equal(t, "acme_s", duplicate.BlockKey)
	assert.Equal(t, BlockTypeNameCity, duplicate.BlockType)
	assert.Equal(t, "name_token_set", duplicate.MatchMethod)
	assert.NotEmpty(t, duplicate.UID)
	assert.NotEqual(t, master.MasterUID, duplicate.UID)

	assert.Equal(t, 1, report.TotalPotentialDuplicates)
	assert.Equal(t, 1, report.KPIMetrics.AutoMerge)
	assert.Equal(t, 2, report.Stats.TotalRecords)
	assert.Equal(t, 1, report.Stats.Blocking.TotalBlocks)
	assert.Equal(t, map[string]string{"customer_name": "Name", "address": "Street", "city": "Town"}, report.ColumnMap)
}

func TestAnalyzeDissimilarNames(t *testing.T) {
	table := &Table{
		Columns: []string{"Name", "Address", "City"},
		Rows: [][]string{
			{"Acme", "1 Main Street", "Springfield"},
			{"Zenith", "1 Main Street", "Springfield"},
		},
	}
	mapping := FieldMapping{CustomerName: "Name", Address: "Address", City: "City"}

	report, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), table, mapping)
	require.NoError(t, err)

	assert.Equal(t, 0, report.DuplicateGroupCount)
	assert.Empty(t, report.Duplicates)
}

func TestAnalyzeEmptyTable(t *testing.T) {
	analyzer := newTestAnalyzer(t, Options{})

	for name, table := range map[string]*Table{
		"Только заголовок": {Columns: []string{"Name"}},
		"Без колонок":      {},
		"nil":              nil,
	} {
		t.Run(name, func(t *testing.T) {
			report, err := analyzer.Analyze(context.Background(), table, FieldMapping{CustomerName: "Name"})
			require.NoError(t, err)
			assert.Equal(t, ReportStatusEmpty, report.Status)
			assert.Equal(t, MessageNothingToProcess, report.Message)
			assert.Equal(t, 0, report.DuplicateGroupCount)
			assert.Empty(t, report.Duplicates)
		})
	}
}

func TestAnalyzeMissingColumn(t *testing.T) {
	table := &Table{
		Columns: []string{"Name", "Address"},
		Rows:    [][]string{{"Acme", "Main"}},
	}
	mapping := FieldMapping{CustomerName: "Name", City: "Town"}

	report, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), table, mapping)
	require.Error(t, err)
	assert.Nil(t, report)

	var notFound *ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Town", notFound.Column)
	assert.Equal(t, FieldCity, notFound.Field)
	assert.Equal(t, []string{"Name", "Address"}, notFound.Available)
	assert.Contains(t, err.Error(), `"Town"`)
	assert.True(t, IsConfigurationError(err))
}

func TestAnalyzeNoFieldsMapped(t *testing.T) {
	table := &Table{Columns: []string{"Name"}, Rows: [][]string{{"Acme"}}}

	_, err := newTestAnalyzer(t, Options{}).Analyze(context.Background(), table, FieldMapping{})
	require.ErrorIs(t, err, ErrNoFieldsMapped)
	assert.True(t, IsConfigurationError(err))
}

func TestAnalyzeOrdersGroupsByAvgSimilarity(t *testing.T) {
	table := &Table{
		Columns: []string{"Name", "Address"},
		Rows: [][]string{
			{"Acme A", "Addr A"},
			{"Acme B", "Addr B"},
			{"Acme C", "Addr C"},
			{"Acme D", "Addr D"},
		},
	}
	scorer := newStubScorer().
		set("acme a", "acme b", 100).set("addr a", "addr b", 80).
		set("acme a", "acme c", 75).set("addr a", "addr c", 70).
		set("acme a", "acme d", 60).set("addr a", "addr d", 100).
		set("acme b", "acme c", 100).set("addr b", "addr c", 100).
		set("acme b", "acme d", 70).set("addr b", "addr d", 69).
		set("acme c", "acme d", 100).set("addr c", "addr d", 38)

	analyzer := newTestAnalyzer(t, Options{Workers: 4})
	analyzer.scorer = scorer

	report, err := analyzer.Analyze(context.Background(), table, FieldMapping{CustomerName: "Name", Address: "Address"})
	require.NoError(t, err)

	require.Len(t, report.Duplicates, 2)
	assert.Equal(t, 3, report.Duplicates[0].ExcelRow)
	assert.Equal(t, 85, report.Duplicates[0].AvgSimilarity)
	assert.Equal(t, 2, report.Duplicates[1].ExcelRow)
	assert.Equal(t, 81, report.Duplicates[1].AvgSimilarity)

	assert.Equal(t, 4, report.TotalPotentialDuplicates)
	assert.Len(t, report.PotentialDuplicates, 2)
	assert.Equal(t, KPIMetrics{NeedsReview: 2}, report.KPIMetrics)
	assert.Equal(t, 2, report.Stats.LowConfidence)
	assert.Equal(t, 0, report.Stats.HighConfidence)
}

// generatedTable таблица с несколькими блоками и вариациями написания
func generatedTable() *Table {
	bases := []string{"Acme Corp", "Zenith Ltd", "Globex Intl", "Initech Co", "Umbrella Group"}
	variants := []string{"%s", "%s.", "The %s", "%s Inc", "%s Services"}
	cities := []string{"Springfield", "Shelbyville", "Boston"}
	streets := []string{"1 Main St", "1 Main Street", "22 Oak Ave", "22 Oak Avenue"}

	table := &Table{Columns: []string{"Name", "Address", "City", "Country"}}
	for i := 0; i < 60; i++ {
		name := fmt.Sprintf(variants[(i/5)%len(variants)], bases[i%len(bases)])
		table.Rows = append(table.Rows, []string{
			name,
			streets[(i/3)%len(streets)],
			cities[(i/7)%len(cities)],
			"US",
		})
	}
	return table
}

func TestAnalyzeProperties(t *testing.T) {
	table := generatedTable()
	mapping := FieldMapping{CustomerName: "Name", Address: "Address", City: "City", Country: "Country"}

	report, err := newTestAnalyzer(t, Options{Workers: 8}).Analyze(context.Background(), table, mapping)
	require.NoError(t, err)
	require.NotEmpty(t, report.Duplicates)

	normalizer := normalization.NewNormalizer(normalization.Options{})
	keyOf := func(row int) string {
		cells := table.Rows[row-2]
		return BlockKey(normalizer.Normalize(cells[0]), normalizer.Normalize(cells[2]))
	}

	uids := make(map[string]struct{})
	for i, group := range report.Duplicates {
		if i > 0 {
			assert.GreaterOrEqual(t, report.Duplicates[i-1].AvgSimilarity, group.AvgSimilarity)
		}

		sum := 0
		for _, duplicate := range group.Duplicates {
			sum += duplicate.OverallScore
			assert.GreaterOrEqual(t, duplicate.NameScore, NameThreshold)
			assert.GreaterOrEqual(t, duplicate.OverallScore, OverallThreshold)
			assert.Equal(t, keyOf(group.ExcelRow), duplicate.BlockKey)
			assert.Equal(t, keyOf(duplicate.ExcelRow), duplicate.BlockKey)
			assert.Greater(t, duplicate.ExcelRow, group.ExcelRow)

			uids[duplicate.UID] = struct{}{}
		}
		assert.Equal(t, roundDiv(sum, len(group.Duplicates)), group.AvgSimilarity)
		assert.Equal(t, len(group.Duplicates), group.DuplicateCount)
		uids[group.MasterUID] = struct{}{}
	}
	assert.Len(t, uids, report.DuplicateGroupCount+report.TotalPotentialDuplicates)
}

func TestAnalyzeDeterministicAcrossWorkerCounts(t *testing.T) {
	table := generatedTable()
	mapping := FieldMapping{CustomerName: "Name", Address: "Address", City: "City"}

	type member struct{ master, row, overall int }
	flatten := func(report *Report) []member {
		var members []member
		for _, group := range report.Duplicates {
			for _, duplicate := range group.Duplicates {
				members = append(members, member{group.ExcelRow, duplicate.ExcelRow, duplicate.OverallScore})
			}
		}
		return members
	}

	sequential, err := newTestAnalyzer(t, Options{Workers: 1}).Analyze(context.Background(), table, mapping)
	require.NoError(t, err)
	parallel, err := newTestAnalyzer(t, Options{Workers: 16}).Analyze(context.Background(), table, mapping)
	require.NoError(t, err)

	assert.Equal(t, flatten(sequential), flatten(parallel))
	assert.Equal(t, sequential.Stats.Blocking, parallel.Stats.Blocking)
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestAnalyzer(t, Options{Workers: 2}).Analyze(ctx, generatedTable(), FieldMapping{CustomerName: "Name", Address: "Address"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeRecoversInternalFailure(t *testing.T) {
	table := &Table{
		Columns: []string{"Name", "Address"},
		Rows: [][]string{
			{"Acme", "1 Main Street"},
			{"Acme", "1 Main Street"},
		},
	}

	analyzer := newTestAnalyzer(t, Options{Workers: 1})
	calls := 0
	analyzer.newID = func() string {
		calls++
		if calls > 1 {
			panic("id generator exhausted")
		}
		return "run"
	}

	report, err := analyzer.Analyze(context.Background(), table, FieldMapping{CustomerName: "Name", Address: "Address"})
	require.Error(t, err)
	assert.Nil(t, report)

	var analysisErr *AnalysisError
	require.True(t, errors.As(err, &analysisErr))
	assert.Contains(t, analysisErr.Origin, "evaluate block")
	assert.Equal(t, "id generator exhausted", analysisErr.Message)
}
