package domain

import (
	"fmt"
	"sort"
)

// HandleOwner — запись каталога, участвующая в разрешении дублей хендлов.
type HandleOwner struct {
	ID           int64
	UniqueHandle string
}

// HandleChange — запланированное переименование уникального хендла.
type HandleChange struct {
	ID        int64
	NewHandle string
}

// PlanHandleSuffixes планирует разрешение дублей уникальных хендлов.
// В каждой группе с одинаковым хендлом запись с наименьшим id остаётся без
// изменений, остальным добавляется суффикс _<n>, где n — позиция записи в
// группе по возрастанию id. Повторный запуск на уже разрешённом наборе не
// даёт изменений.
func PlanHandleSuffixes(groups map[string][]HandleOwner) []HandleChange {
	var changes []HandleChange
	for handle, owners := range groups {
		if len(owners) < 2 {
			continue
		}
		sorted := append([]HandleOwner(nil), owners...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
		for idx, owner := range sorted[1:] {
			renamed := fmt.Sprintf("%s_%d", handle, idx+1)
			if owner.UniqueHandle == renamed {
				continue
			}
			changes = append(changes, HandleChange{ID: owner.ID, NewHandle: renamed})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].ID < changes[j].ID })
	return changes
}
