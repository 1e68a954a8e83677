package document

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	upperSingle = map[rune]string{
		'А': "A", 'Б': "B", 'В': "V", 'Г': "G", 'Д': "D", 'Е': "E", 'Ё': "E",
		'З': "Z", 'И': "I", 'Й': "Y", 'К': "K", 'Л': "L", 'М': "M", 'Н': "N",
		'О': "O", 'П': "P", 'Р': "R", 'С': "S", 'Т': "T", 'У': "U", 'Ф': "F",
		'Х': "H", 'Ъ': "", 'Ы': "Y", 'Ь': "", 'Э': "E",
	}
	upperMulti = map[rune]string{
		'Ж': "Zh", 'Ц': "Ts", 'Ч': "Ch", 'Ш': "Sh", 'Щ': "Sch", 'Ю': "Yu", 'Я': "Ya",
	}
	lower = map[rune]string{
		'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
		'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
		'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
		'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch", 'ъ': "",
		'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	}

	nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]`)
)

// Transliterate maps Cyrillic letters to Latin. A multi-letter capital
// followed by a lowercase letter is title-cased (Ж+а -> Zha), otherwise it is
// upper-cased (ЖУК -> ZHUK).
func Transliterate(s string) string {
	runes := []rune(norm.NFC.String(s))
	var b strings.Builder
	for i, r := range runes {
		if latin, ok := upperMulti[r]; ok {
			if i+1 < len(runes) && isCyrillicLower(runes[i+1]) {
				b.WriteString(latin)
			} else {
				b.WriteString(strings.ToUpper(latin))
			}
			continue
		}
		if latin, ok := upperSingle[r]; ok {
			b.WriteString(latin)
			continue
		}
		if latin, ok := lower[r]; ok {
			b.WriteString(latin)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isCyrillicLower(r rune) bool {
	return unicode.Is(unicode.Cyrillic, r) && unicode.IsLower(r)
}

// FormatImageName transliterates the file stem, replaces everything except
// letters, digits and underscores with underscores and lowercases the
// result. The extension is kept.
func FormatImageName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	stem = nonWord.ReplaceAllString(Transliterate(stem), "_")
	return strings.ToLower(stem + ext)
}

// UniqueName returns name, or name with a _2, _3... suffix before the
// extension when it is already in used. The returned name is added to used.
func UniqueName(used map[string]struct{}, name string) string {
	candidate := name
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		if _, taken := used[candidate]; !taken {
			used[candidate] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
}
