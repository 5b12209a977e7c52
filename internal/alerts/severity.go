package alerts

import "fmt"

// Thresholds partitions the risk score range [0,100] into four contiguous
// severity bands:
//
//	[0, Medium)        -> low
//	[Medium, High)     -> medium
//	[High, Critical)   -> high
//	[Critical, 100]    -> critical
//
// Bands must stay monotonic and contiguous; Validate enforces that.
type Thresholds struct {
	Medium   float64 `yaml:"medium"`
	High     float64 `yaml:"high"`
	Critical float64 `yaml:"critical"`
}

// DefaultThresholds returns the standard band boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 25, High: 50, Critical: 75}
}

// Validate checks that the boundaries are strictly increasing and inside (0,100].
func (t Thresholds) Validate() error {
	if t.Medium <= 0 || t.Critical > 100 {
		return fmt.Errorf("severity thresholds out of range: medium=%.1f critical=%.1f", t.Medium, t.Critical)
	}
	if !(t.Medium < t.High && t.High < t.Critical) {
		return fmt.Errorf("severity thresholds not monotonic: medium=%.1f high=%.1f critical=%.1f", t.Medium, t.High, t.Critical)
	}
	return nil
}

// Classify maps a risk score to a severity. A non-empty explicit label is
// authoritative and returned verbatim. Out-of-range scores clamp to the
// nearest band. Classify has no side effects and cannot fail.
func (t Thresholds) Classify(riskScore float64, explicit Severity) Severity {
	if explicit != "" {
		return explicit
	}
	switch {
	case riskScore >= t.Critical:
		return SeverityCritical
	case riskScore >= t.High:
		return SeverityHigh
	case riskScore >= t.Medium:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
