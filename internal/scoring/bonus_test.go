package scoring

import "testing"

func ptr(n int) *int { return &n }

func TestBonusOnTimeOrUnder(t *testing.T) {
	for est := 1; est <= 60; est += 7 {
		for spent := 1; spent <= est; spent++ {
			b := CalculateBonusPoints(ptr(spent), ptr(est))
			if b.BonusPoints != 0 || b.Explanation != "" {
				t.Fatalf("spent=%d est=%d: got %+v, want zero bonus", spent, est, b)
			}
		}
	}
}

func TestBonusFloorOfOvertime(t *testing.T) {
	est := 10
	for overtime := 1; overtime <= 40; overtime++ {
		b := CalculateBonusPoints(ptr(est+overtime), ptr(est))
		want := overtime / 5
		if b.BonusPoints != want {
			t.Errorf("overtime=%d: bonus = %d, want %d", overtime, b.BonusPoints, want)
		}
		if (b.Explanation != "") != (want > 0) {
			t.Errorf("overtime=%d: explanation %q present iff bonus > 0", overtime, b.Explanation)
		}
	}
}

func TestBonusInvalidInputs(t *testing.T) {
	tests := []struct {
		name       string
		spent, est *int
	}{
		{"nil spent", nil, ptr(10)},
		{"nil estimate", ptr(30), nil},
		{"zero spent", ptr(0), ptr(10)},
		{"zero estimate", ptr(30), ptr(0)},
		{"negative spent", ptr(-30), ptr(10)},
		{"negative estimate", ptr(30), ptr(-10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if b := CalculateBonusPoints(tt.spent, tt.est); b != (Bonus{}) {
				t.Errorf("got %+v, want zero value", b)
			}
		})
	}
}

func TestBonusExplanationReportsRawOvertime(t *testing.T) {
	// 32 minutes over: the explanation keeps 32, not 30.
	b := CalculateBonusPoints(ptr(122), ptr(90))
	if b.BonusPoints != 6 {
		t.Fatalf("bonus = %d, want 6", b.BonusPoints)
	}
	if b.OvertimeMinutes != 32 || b.EstimateMinutes != 90 {
		t.Errorf("overtime/estimate = %d/%d, want 32/90", b.OvertimeMinutes, b.EstimateMinutes)
	}
	want := "32 min over estimate (90 min) = 6 bonus points"
	if b.Explanation != want {
		t.Errorf("explanation = %q, want %q", b.Explanation, want)
	}
}

func TestTotalPointsScenarios(t *testing.T) {
	// Take out trash: 2 min over, no bonus.
	got := CalculateTotalPoints(ptr(5), ptr(12), ptr(10))
	if got.TotalPoints != 5 || got.BonusPoints != 0 || got.Explanation != "" {
		t.Errorf("trash: got %+v", got)
	}

	// Mow lawn: 30 min over, 6 bonus.
	got = CalculateTotalPoints(ptr(30), ptr(120), ptr(90))
	if got.TotalPoints != 36 || got.BonusPoints != 6 {
		t.Errorf("lawn: got %+v", got)
	}
}

func TestTotalPointsEqualsBasePlusBonus(t *testing.T) {
	for base := 0; base <= 20; base += 5 {
		for spent := 1; spent <= 50; spent += 3 {
			est := 15
			total := CalculateTotalPoints(ptr(base), ptr(spent), ptr(est))
			bonus := CalculateBonusPoints(ptr(spent), ptr(est))
			if total.TotalPoints != base+bonus.BonusPoints {
				t.Fatalf("base=%d spent=%d: total = %d, want %d", base, spent, total.TotalPoints, base+bonus.BonusPoints)
			}
		}
	}
}

func TestTotalPointsInvalidBase(t *testing.T) {
	if got := CalculateTotalPoints(nil, ptr(20), ptr(10)); got.TotalPoints != 2 {
		t.Errorf("nil base: total = %d, want 2", got.TotalPoints)
	}
	if got := CalculateTotalPoints(ptr(-4), nil, nil); got.TotalPoints != 0 {
		t.Errorf("negative base: total = %d, want 0", got.TotalPoints)
	}
}
