package quality

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Пороги отбора пар
const (
	// NameThreshold пары с оценкой имени ниже порога отбрасываются сразу
	NameThreshold = 70
	// OverallThreshold пары с общей оценкой ниже порога отбрасываются
	OverallThreshold = 70
	// HighConfidenceThreshold общая оценка ниже порога помечается как низкая уверенность
	HighConfidenceThreshold = 90
)

// matchFields поля, среди которых выбирается MatchMethod (TPI не участвует)
var matchFields = []Field{FieldName, FieldAddress, FieldCity, FieldCountry}

// Scorer источник метрик сходства для пары строк
type Scorer interface {
	Score(a, b string) ScoreSet
}

// fieldResult оценка одного поля пары
type fieldResult struct {
	score  int
	method string
}

// PairEvaluator сравнивает все пары записей внутри блока и собирает
// принятые пары вокруг якорных записей
type PairEvaluator struct {
	scorer  Scorer
	mapping FieldMapping
	records []Record
	newID   func() string
	logger  *zap.Logger
}

// NewPairEvaluator создает оценщик пар. records индексируются по Position.
func NewPairEvaluator(scorer Scorer, mapping FieldMapping, records []Record, logger *zap.Logger) *PairEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PairEvaluator{
		scorer:  scorer,
		mapping: mapping,
		records: records,
		newID:   uuid.NewString,
		logger:  logger,
	}
}

// EvaluateBlock сравнивает пары (i<j) блока. Якорем пары становится более ранняя
// запись. Мастер-записи возвращаются в порядке появления якорей.
func (pe *PairEvaluator) EvaluateBlock(block Block) []*MasterRecord {
	// арена мастер-записей блока: позиция якоря -> индекс в masters
	var masters []MasterRecord
	index := make(map[int]int)

	positions := block.Positions
	for i := 0; i < len(positions); i++ {
		anchor := pe.records[positions[i]]
		for j := i + 1; j < len(positions); j++ {
			candidate := pe.records[positions[j]]

			duplicate, ok := pe.evaluatePair(block.Key, anchor, candidate)
			if !ok {
				continue
			}

			idx, exists := index[anchor.Position]
			if !exists {
				idx = len(masters)
				index[anchor.Position] = idx
				masters = append(masters, MasterRecord{
					MasterUID:   pe.newID(),
					ExcelRow:    anchor.ExcelRow(),
					FieldValues: anchor.Raw,
					position:    anchor.Position,
				})
			}
			masters[idx].Duplicates = append(masters[idx].Duplicates, duplicate)
		}
	}

	result := make([]*MasterRecord, len(masters))
	for i := range masters {
		result[i] = &masters[i]
	}
	return result
}

// evaluatePair возвращает деталь дубликата или false, если пара отклонена
func (pe *PairEvaluator) evaluatePair(blockKey string, anchor, candidate Record) (*DuplicateRecord, bool) {
	var results [fieldCount]fieldResult

	results[FieldName] = pe.scoreField(FieldName, anchor, candidate)
	if results[FieldName].score < NameThreshold {
		return nil, false
	}

	for _, f := range AllFields[1:] {
		results[f] = pe.scoreField(f, anchor, candidate)
	}

	overall := roundDiv(results[FieldName].score+results[FieldAddress].score, 2)
	if overall < OverallThreshold {
		return nil, false
	}

	winner := matchFields[0]
	for _, f := range matchFields[1:] {
		if results[f].score > results[winner].score {
			winner = f
		}
	}

	return &DuplicateRecord{
		UID:             pe.newID(),
		ExcelRow:        candidate.ExcelRow(),
		FieldValues:     candidate.Raw,
		NameScore:       results[FieldName].score,
		AddressScore:    results[FieldAddress].score,
		CityScore:       results[FieldCity].score,
		CountryScore:    results[FieldCountry].score,
		TPIScore:        results[FieldTPI].score,
		OverallScore:    overall,
		IsLowConfidence: overall < HighConfidenceThreshold,
		BlockType:       BlockTypeNameCity,
		BlockKey:        blockKey,
		MatchMethod:     winner.String() + "_" + results[winner].method,
	}, true
}

// scoreField слитая оценка поля. Несопоставленное поле, пустое значение
// или сбой метрики дают 0.
func (pe *PairEvaluator) scoreField(f Field, anchor, candidate Record) (result fieldResult) {
	if !pe.mapping.Mapped(f) {
		return fieldResult{}
	}
	a := anchor.Normalized.Get(f)
	b := candidate.Normalized.Get(f)
	if a == "" || b == "" {
		return fieldResult{}
	}

	defer func() {
		if r := recover(); r != nil {
			pe.logger.Warn("field scoring failed",
				zap.String("field", f.Key()),
				zap.Int("anchor_row", anchor.ExcelRow()),
				zap.Int("candidate_row", candidate.ExcelRow()),
				zap.Any("panic", r))
			result = fieldResult{}
		}
	}()

	score, method := Fuse(pe.scorer.Score(a, b))
	return fieldResult{score: score, method: method}
}
