package quality

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"dedupserver/normalization"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options настройки анализатора дубликатов
type Options struct {
	// Workers количество блоков, обрабатываемых параллельно (по умолчанию runtime.NumCPU())
	Workers int
	// FoldDiacritics передается нормализатору
	FoldDiacritics bool
}

// DuplicateAnalyzer ищет дубликаты в таблице: нормализация, блокирование,
// попарная оценка внутри блоков и сборка групп.
// Каждый вызов Analyze независим, анализатор можно использовать из нескольких горутин.
type DuplicateAnalyzer struct {
	logger     *zap.Logger
	workers    int
	normalizer *normalization.Normalizer
	scorer     Scorer
	newID      func() string
}

// NewDuplicateAnalyzer создает новый анализатор дубликатов
func NewDuplicateAnalyzer(logger *zap.Logger, opts Options) *DuplicateAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &DuplicateAnalyzer{
		logger:     logger,
		workers:    workers,
		normalizer: normalization.NewNormalizer(normalization.Options{FoldDiacritics: opts.FoldDiacritics}),
		scorer:     NewFuzzyMatcher(),
		newID:      uuid.NewString,
	}
}

// Analyze выполняет полный анализ таблицы.
// Ошибка сопоставления колонок прерывает анализ без частичного результата.
// Пустая таблица не ошибка: возвращается отчет со статусом "empty".
// Непредвиденный сбой возвращается как *AnalysisError.
func (da *DuplicateAnalyzer) Analyze(ctx context.Context, table *Table, mapping FieldMapping) (report *Report, err error) {
	startTime := time.Now()
	runID := da.newID()
	stage := "validate"

	defer func() {
		if r := recover(); r != nil {
			da.logger.Error("duplicate analysis panicked",
				zap.String("run_id", runID),
				zap.String("stage", stage),
				zap.Any("panic", r))
			report = nil
			err = &AnalysisError{Origin: stage, Message: fmt.Sprint(r)}
		}
	}()

	if table == nil || len(table.Rows) == 0 {
		da.logger.Info("duplicate analysis skipped: empty table", zap.String("run_id", runID))
		return emptyReport(runID, mapping), nil
	}

	if err := mapping.Validate(table.Columns); err != nil {
		return nil, fmt.Errorf("invalid column mapping: %w", err)
	}

	stage = "normalize"
	records := da.buildRecords(table, mapping)

	stage = "block"
	blocks, blockStats := BuildBlocks(records)
	da.logger.Debug("records blocked",
		zap.String("run_id", runID),
		zap.Int("blocks", blockStats.TotalBlocks),
		zap.Int("max_block_size", blockStats.MaxBlockSize),
		zap.Int("singleton_blocks", blockStats.SingletonBlocks),
		zap.Int("candidate_pairs", blockStats.CandidatePairs))

	stage = "evaluate"
	evaluator := NewPairEvaluator(da.scorer, mapping, records, da.logger)
	evaluator.newID = da.newID
	masters, err := da.evaluateBlocks(ctx, blocks, evaluator)
	if err != nil {
		return nil, err
	}

	stage = "assemble"
	groups := AssembleClusters(masters)

	stage = "report"
	elapsed := time.Since(startTime)
	report = buildReport(runID, groups, len(records), blockStats, mapping, elapsed)

	da.logger.Info("duplicate analysis completed",
		zap.String("run_id", runID),
		zap.Int("records", len(records)),
		zap.Int("blocks", blockStats.TotalBlocks),
		zap.Int("groups", report.DuplicateGroupCount),
		zap.Int("duplicates", report.TotalPotentialDuplicates),
		zap.Duration("duration", elapsed))

	return report, nil
}

// buildRecords читает сопоставленные колонки и нормализует значения
func (da *DuplicateAnalyzer) buildRecords(table *Table, mapping FieldMapping) []Record {
	var columns [fieldCount]int
	for _, f := range AllFields {
		columns[f] = -1
		if mapping.Mapped(f) {
			columns[f] = table.ColumnIndex(mapping.Column(f))
		}
	}

	records := make([]Record, len(table.Rows))
	for i := range table.Rows {
		record := Record{Position: i}
		for _, f := range AllFields {
			if columns[f] < 0 {
				continue
			}
			raw := table.Cell(i, columns[f])
			record.Raw.Set(f, raw)
			record.Normalized.Set(f, da.normalizer.Normalize(raw))
		}
		records[i] = record
	}
	return records
}

// evaluateBlocks обрабатывает блоки пулом воркеров. Каждая запись лежит ровно
// в одном блоке, поэтому мастер-записи якоря заполняет один воркер.
// Результаты собираются в порядке блоков.
func (da *DuplicateAnalyzer) evaluateBlocks(ctx context.Context, blocks []Block, evaluator *PairEvaluator) ([]*MasterRecord, error) {
	results := make([][]*MasterRecord, len(blocks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(da.workers)

	for i, block := range blocks {
		if len(block.Positions) < 2 {
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &AnalysisError{
						Origin:  fmt.Sprintf("evaluate block %q", block.Key),
						Message: fmt.Sprint(r),
					}
				}
			}()

			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = evaluator.EvaluateBlock(block)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("duplicate analysis cancelled: %w", ctx.Err())
		}
		return nil, err
	}

	masters := make([]*MasterRecord, 0)
	for _, blockMasters := range results {
		masters = append(masters, blockMasters...)
	}
	return masters, nil
}
