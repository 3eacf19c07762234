package quality

import (
	"fmt"
	"strings"
)

// Metaphone строит фонетический код строки по правилам Metaphone.
// Каждое слово кодируется отдельно, коды соединяются пробелом, цифры
// переносятся в код без изменений. Символы вне [A-Za-z0-9] и пробелов
// дают ошибку.
func Metaphone(s string) (string, error) {
	for i, r := range s {
		if r > 0x7f || !(isASCIILetter(byte(r)) || isDigit(byte(r)) || r == ' ' || r == '\t') {
			return "", fmt.Errorf("metaphone: unsupported character %q at offset %d", r, i)
		}
	}

	words := strings.Fields(strings.ToLower(s))
	codes := make([]string, 0, len(words))
	for _, word := range words {
		if code := metaphoneWord(word); code != "" {
			codes = append(codes, code)
		}
	}
	return strings.Join(codes, " "), nil
}

func metaphoneWord(word string) string {
	w := []byte(word)

	// начальные сочетания
	switch {
	case hasPrefix(w, "ae"), hasPrefix(w, "gn"), hasPrefix(w, "kn"), hasPrefix(w, "pn"), hasPrefix(w, "wr"):
		w = w[1:]
	case hasPrefix(w, "wh"):
		w = append([]byte{'w'}, w[2:]...)
	case hasPrefix(w, "x"):
		w = append([]byte{'s'}, w[1:]...)
	}

	var code strings.Builder
	n := len(w)
	at := func(i int) byte {
		if i < 0 || i >= n {
			return 0
		}
		return w[i]
	}

	for i := 0; i < n; i++ {
		c := w[i]

		// повторяющиеся буквы кодируются один раз, кроме C
		if i > 0 && c == w[i-1] && c != 'c' && !isDigit(c) {
			continue
		}

		switch c {
		case 'a', 'e', 'i', 'o', 'u':
			if i == 0 {
				code.WriteByte(upper(c))
			}
		case 'b':
			if !(i == n-1 && at(i-1) == 'm') {
				code.WriteByte('B')
			}
		case 'c':
			switch {
			case at(i+1) == 'i' && at(i+2) == 'a':
				code.WriteByte('X')
			case at(i+1) == 'h':
				if at(i-1) == 's' {
					code.WriteByte('K')
				} else {
					code.WriteByte('X')
				}
				i++
			case isFrontVowel(at(i + 1)):
				if at(i-1) != 's' {
					code.WriteByte('S')
				}
			default:
				code.WriteByte('K')
			}
		case 'd':
			if at(i+1) == 'g' && isFrontVowel(at(i+2)) {
				code.WriteByte('J')
				i++
			} else {
				code.WriteByte('T')
			}
		case 'g':
			switch {
			case at(i+1) == 'h':
				if isVowelByte(at(i + 2)) {
					code.WriteByte('K')
				}
			case at(i+1) == 'n' && (i+2 == n || (at(i+2) == 'e' && at(i+3) == 'd' && i+4 == n)):
				// GN и GNED в конце слова не читаются
			case isFrontVowel(at(i+1)) && at(i-1) != 'g':
				code.WriteByte('J')
			default:
				code.WriteByte('K')
			}
		case 'h':
			prev := at(i - 1)
			if strings.IndexByte("cgpst", prev) >= 0 {
				continue
			}
			if isVowelByte(prev) && !isVowelByte(at(i+1)) {
				continue
			}
			if i > 0 && !isVowelByte(at(i+1)) {
				continue
			}
			code.WriteByte('H')
		case 'k':
			if at(i-1) != 'c' {
				code.WriteByte('K')
			}
		case 'p':
			if at(i+1) == 'h' {
				code.WriteByte('F')
			} else {
				code.WriteByte('P')
			}
		case 'q':
			code.WriteByte('K')
		case 's':
			switch {
			case at(i+1) == 'h':
				code.WriteByte('X')
			case at(i+1) == 'i' && (at(i+2) == 'o' || at(i+2) == 'a'):
				code.WriteByte('X')
			default:
				code.WriteByte('S')
			}
		case 't':
			switch {
			case at(i+1) == 'i' && (at(i+2) == 'o' || at(i+2) == 'a'):
				code.WriteByte('X')
			case at(i+1) == 'h':
				code.WriteByte('0')
			case at(i+1) == 'c' && at(i+2) == 'h':
			default:
				code.WriteByte('T')
			}
		case 'v':
			code.WriteByte('F')
		case 'w', 'y':
			if isVowelByte(at(i + 1)) {
				code.WriteByte(upper(c))
			}
		case 'x':
			code.WriteString("KS")
		case 'z':
			code.WriteByte('S')
		case 'f', 'j', 'l', 'm', 'n', 'r':
			code.WriteByte(upper(c))
		default:
			if isDigit(c) {
				code.WriteByte(c)
			}
		}
	}

	return code.String()
}

func hasPrefix(w []byte, prefix string) bool {
	return len(w) >= len(prefix) && string(w[:len(prefix)]) == prefix
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isVowelByte(c byte) bool {
	return c == 'a' || c == 'e' || c == 'i' || c == 'o' || c == 'u'
}

func isFrontVowel(c byte) bool {
	return c == 'e' || c == 'i' || c == 'y'
}

func upper(c byte) byte {
	return c - 'a' + 'A'
}
