package normalization

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// leadingArticle артикль, который отбрасывается в начале значения
const leadingArticle = "the"

// Options настройки нормализатора
type Options struct {
	// FoldDiacritics убирает диакритику ("é" -> "e") до очистки символов.
	// По умолчанию выключено: буквы с диакритикой заменяются пробелом.
	FoldDiacritics bool
}

// Normalizer приводит значения полей к канонической форме, чтобы сравнение
// не зависело от регистра, пунктуации и сокращений.
// Безопасен для одновременного использования из нескольких горутин.
type Normalizer struct {
	nonAlphanumericRegex *regexp.Regexp
	foldDiacritics       bool
}

// NewNormalizer создает новый нормализатор
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{
		nonAlphanumericRegex: regexp.MustCompile(`[^a-z0-9]+`),
		foldDiacritics:       opts.FoldDiacritics,
	}
}

// Normalize нормализует сырое значение поля.
// Результат детерминирован и идемпотентен: Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	value := raw
	if n.foldDiacritics {
		value = foldDiacritics(value)
	}

	// 1. Нижний регистр и обрезка пробелов
	value = strings.TrimSpace(strings.ToLower(value))

	// 2. Все, что не [a-z0-9], заменяем пробелом; Fields схлопывает пробелы
	value = n.nonAlphanumericRegex.ReplaceAllString(value, " ")
	tokens := strings.Fields(value)

	// 3. Ведущие артикли снимаются, пока за ними есть другие токены
	for len(tokens) > 1 && tokens[0] == leadingArticle {
		tokens = tokens[1:]
	}

	// 4. Раскрытие сокращений
	for i, token := range tokens {
		tokens[i] = expandToken(token)
	}

	return strings.Join(tokens, " ")
}

// expandToken раскрывает сокращение; короткие и числовые токены не трогаем
func expandToken(token string) string {
	if len(token) <= 1 || isNumeric(token) {
		return token
	}
	return ExpandAbbreviation(token)
}

func isNumeric(token string) bool {
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return token != ""
}

// foldDiacritics раскладывает символы (NFD) и удаляет combining marks
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
