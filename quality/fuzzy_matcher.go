package quality

import (
	"math"
	"math/bits"
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// Веса метрик при слиянии, в десятых долях (сумма 10)
const (
	weightTokenSet    = 3
	weightTokenSort   = 2
	weightPartial     = 2
	weightJaroWinkler = 2
	weightPhonetic    = 1
	weightTotal       = weightTokenSet + weightTokenSort + weightPartial + weightJaroWinkler + weightPhonetic
)

// FuzzyMatcher нечеткий сопоставитель строк: пять метрик сходства по шкале 0..100.
// Не хранит состояния между вызовами и безопасен для конкурентного использования.
type FuzzyMatcher struct {
	boostThreshold float64 // Порог Jaro, после которого добавляется бонус за общий префикс
	prefixSize     int     // Максимальная длина учитываемого общего префикса
}

// NewFuzzyMatcher создает новый нечеткий сопоставитель
func NewFuzzyMatcher() *FuzzyMatcher {
	return &FuzzyMatcher{
		boostThreshold: 0.7,
		prefixSize:     4,
	}
}

// Score вычисляет все пять метрик. Если хотя бы одна строка пустая, все метрики 0.
// Результат симметричен: Score(a, b) == Score(b, a).
func (fm *FuzzyMatcher) Score(a, b string) ScoreSet {
	if a == "" || b == "" {
		return ScoreSet{}
	}

	return ScoreSet{
		TokenSet:    roundScore(tokenSetRatio(a, b)),
		TokenSort:   roundScore(tokenSortRatio(a, b)),
		Partial:     roundScore(partialRatio(a, b)),
		JaroWinkler: roundScore(100 * fm.jaroWinkler(a, b)),
		Phonetic:    fm.phoneticScore(a, b),
	}
}

// Fuse сливает метрики во взвешенную оценку и определяет метрику-победителя.
// Ничьи разрешаются порядком: token_set, token_sort, partial, jaro_winkler, phonetic.
func Fuse(s ScoreSet) (int, string) {
	sum := weightTokenSet*s.TokenSet +
		weightTokenSort*s.TokenSort +
		weightPartial*s.Partial +
		weightJaroWinkler*s.JaroWinkler +
		weightPhonetic*s.Phonetic

	candidates := []struct {
		name  string
		value int
	}{
		{MetricTokenSet, s.TokenSet},
		{MetricTokenSort, s.TokenSort},
		{MetricPartial, s.Partial},
		{MetricJaroWinkler, s.JaroWinkler},
		{MetricPhonetic, s.Phonetic},
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.value > best.value {
			best = c
		}
	}

	return roundDiv(sum, weightTotal), best.name
}

// jaroWinkler аргументы упорядочиваются, чтобы результат не зависел от их порядка
func (fm *FuzzyMatcher) jaroWinkler(a, b string) float64 {
	if a == b {
		return 1
	}
	if a > b {
		a, b = b, a
	}
	return smetrics.JaroWinkler(a, b, fm.boostThreshold, fm.prefixSize)
}

// phoneticScore сравнивает Metaphone-коды. Ошибка кодирования дает 0.
func (fm *FuzzyMatcher) phoneticScore(a, b string) int {
	codeA, err := Metaphone(a)
	if err != nil {
		return 0
	}
	codeB, err := Metaphone(b)
	if err != nil {
		return 0
	}

	if codeA == "" || codeB == "" {
		// строки из одних немых букв ("w", "hy") кодов не имеют
		if codeA == codeB && a == b {
			return 100
		}
		return 0
	}
	if codeA == codeB {
		return 100
	}
	return roundScore(100 * fm.jaroWinkler(codeA, codeB))
}

// ratio нормализованное сходство по расстоянию Indel: 2*LCS / (len(a)+len(b))
func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 200 * float64(lcsLength(a, b)) / float64(total)
}

func stringRatio(a, b string) float64 {
	return ratio([]rune(a), []rune(b))
}

// lcsLength длина наибольшей общей подпоследовательности, O(len(a)*len(b)) по времени, O(len(b)) по памяти
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// tokenSortRatio сравнивает строки после сортировки токенов
func tokenSortRatio(a, b string) float64 {
	return stringRatio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// tokenSetRatio сравнивает пересечение множеств токенов с каждой из сторон
func tokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var intersection, diffAB, diffBA []string
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection = append(intersection, token)
		} else {
			diffAB = append(diffAB, token)
		}
	}
	for token := range setB {
		if _, ok := setA[token]; !ok {
			diffBA = append(diffBA, token)
		}
	}
	sort.Strings(intersection)
	sort.Strings(diffAB)
	sort.Strings(diffBA)

	t0 := strings.Join(intersection, " ")
	t1 := joinNonEmpty(t0, strings.Join(diffAB, " "))
	t2 := joinNonEmpty(t0, strings.Join(diffBA, " "))

	best := stringRatio(t1, t2)
	if t0 != "" {
		best = math.Max(best, stringRatio(t0, t1))
		best = math.Max(best, stringRatio(t0, t2))
	}
	return best
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}
	return set
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// partialRatio лучшее сходство короткой строки с подстрокой длинной,
// включая частично перекрывающиеся окна в начале и в конце
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	switch {
	case len(ra) < len(rb):
		return partialWindows(ra, rb)
	case len(ra) > len(rb):
		return partialWindows(rb, ra)
	default:
		return math.Max(partialWindows(ra, rb), partialWindows(rb, ra))
	}
}

func partialWindows(short, long []rune) float64 {
	m, n := len(short), len(long)
	if m == 0 {
		if n == 0 {
			return 100
		}
		return 0
	}

	pattern := newLCSPattern(short)
	state := make([]uint64, pattern.words)

	best := 0.0
	consider := func(window []rune) bool {
		// LCS не длиннее окна: окно, которое не может превзойти best, не считаем
		size := len(window)
		if size < m && 200*float64(size)/float64(m+size) <= best {
			return false
		}
		if r := 200 * float64(pattern.lcs(window, state)) / float64(m+size); r > best {
			best = r
		}
		return best >= 100
	}

	for i := 0; i+m <= n; i++ {
		if consider(long[i : i+m]) {
			return best
		}
	}
	for i := m - 1; i >= 1; i-- {
		if i <= n && consider(long[:i]) {
			return best
		}
	}
	for i := n - m + 1; i < n; i++ {
		if i <= 0 {
			continue
		}
		if consider(long[i:]) {
			return best
		}
	}
	return best
}

// lcsPattern битовые маски позиций символов строки для бит-параллельного
// подсчета LCS (Hyyrö), по 64 позиции на слово
type lcsPattern struct {
	size  int
	words int
	masks map[rune][]uint64
}

func newLCSPattern(s []rune) *lcsPattern {
	p := &lcsPattern{
		size:  len(s),
		words: (len(s) + 63) / 64,
		masks: make(map[rune][]uint64),
	}
	for i, r := range s {
		mask, ok := p.masks[r]
		if !ok {
			mask = make([]uint64, p.words)
			p.masks[r] = mask
		}
		mask[i/64] |= 1 << (uint(i) % 64)
	}
	return p
}

// lcs длина LCS шаблона и text за O(len(text) * words); state - буфер на words слов
func (p *lcsPattern) lcs(text []rune, state []uint64) int {
	for w := range state {
		state[w] = ^uint64(0)
	}

	for _, r := range text {
		mask, ok := p.masks[r]
		if !ok {
			continue
		}
		var carry uint64
		for w := range state {
			u := state[w] & mask[w]
			sum, c := bits.Add64(state[w], u, carry)
			carry = c
			state[w] = sum | (state[w] &^ u)
		}
	}

	// нулевые биты в пределах длины шаблона - совпавшие позиции
	matched := 0
	for w, v := range state {
		zeros := ^v
		if w == len(state)-1 && p.size%64 != 0 {
			zeros &= (uint64(1) << (uint(p.size) % 64)) - 1
		}
		matched += bits.OnesCount64(zeros)
	}
	return matched
}

// roundScore округление к ближайшему целому, половины к четному
func roundScore(x float64) int {
	return int(math.RoundToEven(x))
}

// roundDiv целочисленное n/d с округлением половин к четному (n >= 0, d > 0)
func roundDiv(n, d int) int {
	q, r := n/d, n%d
	switch {
	case 2*r > d:
		return q + 1
	case 2*r == d && q%2 == 1:
		return q + 1
	default:
		return q
	}
}
