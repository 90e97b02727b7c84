package services

import "testing"

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		totalXP int
		level   int
	}{
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{899, 3},
		{900, 4},
	}
	for _, c := range cases {
		if got := LevelForXP(c.totalXP, DefaultLevelStepXP); got != c.level {
			t.Fatalf("LevelForXP(%d) = %d, want %d", c.totalXP, got, c.level)
		}
	}
}

func TestCurrentLevelXP(t *testing.T) {
	if got := CurrentLevelXP(0, DefaultLevelStepXP); got != 0 {
		t.Fatalf("CurrentLevelXP(0) = %d", got)
	}
	if got := CurrentLevelXP(150, DefaultLevelStepXP); got != 50 {
		t.Fatalf("CurrentLevelXP(150) = %d, want 50", got)
	}
	if got := CurrentLevelXP(400, DefaultLevelStepXP); got != 0 {
		t.Fatalf("CurrentLevelXP(400) = %d, want 0", got)
	}
}

// Level math must be a pure, total function of the ledger sum: for every
// XP value the within-level remainder stays inside [0, next level floor).
func TestLevelInvariants(t *testing.T) {
	for xp := 0; xp <= 5000; xp += 10 {
		level := LevelForXP(xp, DefaultLevelStepXP)
		if level < 1 {
			t.Fatalf("level < 1 at xp=%d", xp)
		}
		floor := DefaultLevelStepXP * (level - 1) * (level - 1)
		nextFloor := DefaultLevelStepXP * level * level
		if xp < floor || xp >= nextFloor {
			t.Fatalf("xp=%d outside [%d, %d) for level %d", xp, floor, nextFloor, level)
		}
		if got := CurrentLevelXP(xp, DefaultLevelStepXP); got != xp-floor {
			t.Fatalf("CurrentLevelXP(%d) = %d, want %d", xp, got, xp-floor)
		}
	}
	if LevelForXP(-10, DefaultLevelStepXP) != 1 {
		t.Fatal("negative XP must clamp to level 1")
	}
}
