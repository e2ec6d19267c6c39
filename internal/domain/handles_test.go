package domain

import "testing"

func TestPlanHandleSuffixes(t *testing.T) {
	groups := map[string][]HandleOwner{
		"alice": {
			{ID: 7, UniqueHandle: "alice"},
			{ID: 3, UniqueHandle: "alice"},
			{ID: 12, UniqueHandle: "alice"},
		},
		"bob": {
			{ID: 1, UniqueHandle: "bob"},
		},
	}

	changes := PlanHandleSuffixes(groups)
	if len(changes) != 2 {
		t.Fatalf("ожидали 2 переименования, получили %d", len(changes))
	}
	if changes[0].ID != 7 || changes[0].NewHandle != "alice_1" {
		t.Fatalf("ожидали alice_1 для id=7, получили %s для id=%d", changes[0].NewHandle, changes[0].ID)
	}
	if changes[1].ID != 12 || changes[1].NewHandle != "alice_2" {
		t.Fatalf("ожидали alice_2 для id=12, получили %s для id=%d", changes[1].NewHandle, changes[1].ID)
	}
}

func TestPlanHandleSuffixesIdempotent(t *testing.T) {
	groups := map[string][]HandleOwner{
		"alice": {
			{ID: 3, UniqueHandle: "alice"},
			{ID: 7, UniqueHandle: "alice_1"},
			{ID: 12, UniqueHandle: "alice_2"},
		},
	}

	changes := PlanHandleSuffixes(groups)
	if len(changes) != 0 {
		t.Fatalf("повторный запуск не должен давать изменений, получили %d", len(changes))
	}
}

func TestNormalizeGender(t *testing.T) {
	cases := map[string]string{
		"F":             "female",
		"men":           "male",
		"femaleTranny":  "trans",
		"":              "",
		"nonbinary-fox": "nonbinary-fox",
	}
	for input, expected := range cases {
		if got := NormalizeGender(input); got != expected {
			t.Fatalf("ожидали %q для %q, получили %q", expected, input, got)
		}
	}
}
