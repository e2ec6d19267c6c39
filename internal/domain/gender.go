package domain

import "strings"

// genderVocabulary сопоставляет канонические значения пола с
// платформенно-специфичными обозначениями. Порядок групп фиксирован:
// часть обозначений встречается в нескольких группах, побеждает первая.
var genderVocabulary = []struct {
	canonical string
	aliases   []string
}{
	{"trans", []string{"trans", "s", "femaletranny"}},
	{"male", []string{"men", "male", "m", "couple female + male", "malefemale"}},
	{"female", []string{"female", "f", "females", "couple female + female"}},
}

// NormalizeGender приводит платформенное значение пола к каноническому.
// Пол — открытый словарь: значение вне словаря возвращается без изменений
// в нижнем регистре.
func NormalizeGender(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}
	for _, group := range genderVocabulary {
		if lowered == group.canonical {
			return group.canonical
		}
		for _, alias := range group.aliases {
			if lowered == alias {
				return group.canonical
			}
		}
	}
	return lowered
}
