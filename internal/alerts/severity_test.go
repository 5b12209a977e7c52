package alerts

import "testing"

func TestClassifyBands(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name     string
		score    float64
		expected Severity
	}{
		{"zero", 0, SeverityLow},
		{"low band", 24.9, SeverityLow},
		{"medium boundary", 25, SeverityMedium},
		{"medium band", 49.9, SeverityMedium},
		{"high boundary", 50, SeverityHigh},
		{"high band", 74.9, SeverityHigh},
		{"critical boundary", 75, SeverityCritical},
		{"max", 100, SeverityCritical},
		{"clamp below", -10, SeverityLow},
		{"clamp above", 150, SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := th.Classify(tt.score, ""); got != tt.expected {
				t.Errorf("Classify(%.1f) = %s; want %s", tt.score, got, tt.expected)
			}
		})
	}
}

func TestClassifyExplicitLabelWins(t *testing.T) {
	th := DefaultThresholds()
	if got := th.Classify(5, SeverityCritical); got != SeverityCritical {
		t.Errorf("explicit label ignored: got %s", got)
	}
	if got := th.Classify(99, SeverityLow); got != SeverityLow {
		t.Errorf("explicit label ignored: got %s", got)
	}
}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name    string
		th      Thresholds
		wantErr bool
	}{
		{"defaults", DefaultThresholds(), false},
		{"custom", Thresholds{Medium: 10, High: 40, Critical: 90}, false},
		{"overlap", Thresholds{Medium: 50, High: 50, Critical: 75}, true},
		{"inverted", Thresholds{Medium: 80, High: 50, Critical: 90}, true},
		{"zero medium", Thresholds{Medium: 0, High: 50, Critical: 75}, true},
		{"critical above range", Thresholds{Medium: 25, High: 50, Critical: 101}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.th.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSeverityRankOrdering(t *testing.T) {
	order := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("rank of %s (%d) not below %s (%d)", order[i-1], order[i-1].Rank(), order[i], order[i].Rank())
		}
	}
	if Severity("bogus").Rank() <= SeverityLow.Rank() {
		t.Error("unknown severity should rank after low")
	}
}
