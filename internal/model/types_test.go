package model

import "testing"

func TestParseStatistic(t *testing.T) {
	for _, s := range Statistics {
		got, err := ParseStatistic(" " + string(s) + " ")
		if err != nil || got != s {
			t.Fatalf("ParseStatistic(%q) = %q, %v", s, got, err)
		}
	}
	if got, err := ParseStatistic("MAX-TIME"); err != nil || got != StatMaxTime {
		t.Fatalf("expected case-insensitive match, got %q, %v", got, err)
	}
	if _, err := ParseStatistic("median"); err == nil {
		t.Fatalf("expected error for unknown statistic")
	}
}

func TestResultValues(t *testing.T) {
	r := ArcsineResult{
		OccupationFraction: []float64{0.1},
		LastZeroFraction:   []float64{0.2},
		MaxTimeFraction:    []float64{0.3},
	}
	want := map[Statistic]float64{StatOccupation: 0.1, StatLastZero: 0.2, StatMaxTime: 0.3}
	for s, v := range want {
		if got := r.Values(s); len(got) != 1 || got[0] != v {
			t.Fatalf("Values(%s) = %v, want [%v]", s, got, v)
		}
	}
	if r.Values("other") != nil {
		t.Fatalf("expected nil for unknown statistic")
	}
}
