package sprite

import (
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const fallbackSpriteName = "Sprite"

// DeriveName builds a display name from an animation path: the file stem,
// title-cased ("dragonite.gif" -> "Dragonite"). Any non-letter starts a new
// word, so "fox_run.gif" becomes "Fox_Run".
func DeriveName(animationPath string) string {
	base := filepath.Base(animationPath)
	stem := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return fallbackSpriteName
	}
	return titleWords(stem)
}

// titleWords title-cases every maximal run of letters in s and leaves the
// other runes as they are.
func titleWords(s string) string {
	caser := cases.Title(language.Und)
	var b strings.Builder
	b.Grow(len(s))
	start := -1
	for i, r := range s {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			b.WriteString(caser.String(s[start:i]))
			start = -1
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		b.WriteString(caser.String(s[start:]))
	}
	return b.String()
}

// CostumeName names the costume for a 0-based frame index. The first frame
// carries the bare sprite name; frame k>=1 gets the suffix k+1.
func CostumeName(spriteName string, frame int) string {
	if frame <= 0 {
		return spriteName
	}
	return spriteName + strconv.Itoa(frame+1)
}
