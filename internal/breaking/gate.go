package breaking

import (
	"fmt"

	"semdiff/internal/severity"
)

// Decision is the outcome of the threshold gate.
type Decision struct {
	Overall   severity.Level `json:"overall"`
	Threshold severity.Level `json:"threshold"`
	Failed    bool           `json:"failed"`
}

// Gate fails when a threshold above None is configured and overall meets or
// exceeds it. A None threshold never fails.
func Gate(overall, threshold severity.Level) Decision {
	return Decision{
		Overall:   overall,
		Threshold: threshold,
		Failed:    threshold > severity.None && overall.AtLeast(threshold),
	}
}

// Message describes the decision for logs and CI output.
func (d Decision) Message() string {
	if d.Failed {
		return fmt.Sprintf("needed version change '%s' exceeds or equals configured lock '%s'", d.Overall.Title(), d.Threshold.Title())
	}
	return fmt.Sprintf("suggested version change: %s", d.Overall.Title())
}
