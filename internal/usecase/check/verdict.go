package check

import "camwatch/internal/domain"

// Классы NudeNet, означающие явную наготу.
var explicitLabels = map[string]struct{}{
	"FEMALE_BREAST_EXPOSED":    {},
	"FEMALE_GENITALIA_EXPOSED": {},
	"MALE_GENITALIA_EXPOSED":   {},
	"BUTTOCKS_EXPOSED":         {},
	"ANUS_EXPOSED":             {},
}

const explicitThreshold = 0.6

// Evaluate выносит вердикт по списку детекций: нагота признаётся при наличии
// эксплицитного класса со score выше порога, уверенность — максимум по таким
// детекциям. Остальные классы на вердикт не влияют.
func Evaluate(detections []domain.Detection) (bool, float64) {
	var confidence float64
	explicit := false
	for _, det := range detections {
		if _, ok := explicitLabels[det.Label]; !ok {
			continue
		}
		if det.Score <= explicitThreshold {
			continue
		}
		explicit = true
		if det.Score > confidence {
			confidence = det.Score
		}
	}
	return explicit, confidence
}
