package domain

import "encoding/json"

// viewersFromRaw достаёт счётчик зрителей из сырого JSON платформы.
// Платформы называют поле по-разному, берётся первое ненулевое.
func viewersFromRaw(raw []byte) int {
	if len(raw) == 0 {
		return 0
	}
	var meta struct {
		NumUsers int `json:"num_users"`
		Viewers  int `json:"viewers"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return 0
	}
	if meta.NumUsers > 0 {
		return meta.NumUsers
	}
	return meta.Viewers
}
