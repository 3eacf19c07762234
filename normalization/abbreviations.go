package normalization

// abbreviationDictionary каноническая форма -> известные сокращения
type abbreviationDictionary map[string][]string

// companySuffixes сокращения организационно-правовых форм и типовых слов в названиях компаний
var companySuffixes = abbreviationDictionary{
	"corporation":   {"corp", "corpn"},
	"incorporated":  {"inc", "incorp"},
	"company":       {"co", "comp"},
	"limited":       {"ltd", "lmtd"},
	"international": {"intl", "intnl"},
	"manufacturing": {"mfg", "mfr"},
	"industries":    {"ind", "inds", "indus"},
	"associates":    {"assoc", "assocs"},
	"brothers":      {"bros", "bro"},
	"services":      {"svc", "svcs", "serv"},
	"technologies":  {"tech", "techs"},
	"group":         {"grp"},
}

// addressComponents сокращения элементов адреса.
// Однобуквенные сторона света ("n", "s", ...) на практике не раскрываются:
// токены длиной 1 пропускаются без изменений.
var addressComponents = abbreviationDictionary{
	"street":    {"st", "str"},
	"avenue":    {"ave", "av"},
	"road":      {"rd"},
	"boulevard": {"blvd"},
	"drive":     {"dr"},
	"lane":      {"ln"},
	"court":     {"ct"},
	"place":     {"pl"},
	"suite":     {"ste"},
	"building":  {"bldg"},
	"highway":   {"hwy"},
	"north":     {"n"},
	"south":     {"s"},
	"east":      {"e"},
	"west":      {"w"},
}

// abbreviationIndex обратный индекс: сокращение или каноническая форма -> каноническая форма.
// Словари проверяются по порядку, первое совпадение выигрывает.
type abbreviationIndex map[string]string

func buildAbbreviationIndex(dictionaries ...abbreviationDictionary) abbreviationIndex {
	index := make(abbreviationIndex)
	for _, dict := range dictionaries {
		for canonical, variants := range dict {
			if _, exists := index[canonical]; !exists {
				index[canonical] = canonical
			}
			for _, variant := range variants {
				if _, exists := index[variant]; !exists {
					index[variant] = canonical
				}
			}
		}
	}
	return index
}

// defaultAbbreviations строится один раз при загрузке пакета
var defaultAbbreviations = buildAbbreviationIndex(companySuffixes, addressComponents)

// ExpandAbbreviation возвращает каноническую форму токена или сам токен
func ExpandAbbreviation(token string) string {
	if canonical, ok := defaultAbbreviations[token]; ok {
		return canonical
	}
	return token
}
