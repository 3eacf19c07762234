package quality

import (
	"fmt"
	"strings"
	"sync"
)

// stubScorer возвращает заранее заданную оценку для неупорядоченной пары строк.
// Все пять метрик равны этой оценке, поэтому Fuse дает ее же.
type stubScorer struct {
	scores  map[[2]string]int
	panicOn string
}

func newStubScorer() *stubScorer {
	return &stubScorer{scores: make(map[[2]string]int)}
}

func (s *stubScorer) set(a, b string, score int) *stubScorer {
	s.scores[pairKey(a, b)] = score
	return s
}

func (s *stubScorer) Score(a, b string) ScoreSet {
	if s.panicOn != "" && (strings.HasPrefix(a, s.panicOn) || strings.HasPrefix(b, s.panicOn)) {
		panic(fmt.Sprintf("scorer failure on %q/%q", a, b))
	}
	v := s.scores[pairKey(a, b)]
	return ScoreSet{TokenSet: v, TokenSort: v, Partial: v, JaroWinkler: v, Phonetic: v}
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// sequentialIDs детерминированный генератор идентификаторов для тестов
func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// recordsFromValues строит записи, где нормализованные значения совпадают с сырыми
func recordsFromValues(values ...FieldValues) []Record {
	records := make([]Record, len(values))
	for i, v := range values {
		records[i] = Record{Position: i, Raw: v, Normalized: v}
	}
	return records
}
