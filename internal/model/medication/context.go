package medication

import (
	"errors"
	"fmt"
)

var ErrInvalidContext = errors.New("invalid adherence context")

// AdherenceContext summarises how the user has been taking medications.
// The app builds it per request; the backend never stores it.
type AdherenceContext struct {
	AdherenceRate      float64  `json:"adherenceRate"`
	ConsecutiveDays    int      `json:"consecutiveDays"`
	TotalMedications   int      `json:"totalMedications"`
	MissedDoses        int      `json:"missedDoses"`
	NeedsMotivation    bool     `json:"needsMotivation"`
	RecentAchievements []string `json:"recentAchievements,omitempty"`
	CurrentConcerns    []string `json:"currentConcerns,omitempty"`
}

func (c AdherenceContext) Validate() error {
	if c.AdherenceRate < 0 || c.AdherenceRate > 100 {
		return fmt.Errorf("%w: adherenceRate %v out of range 0..100", ErrInvalidContext, c.AdherenceRate)
	}
	if c.ConsecutiveDays < 0 {
		return fmt.Errorf("%w: consecutiveDays must not be negative", ErrInvalidContext)
	}
	if c.TotalMedications < 0 {
		return fmt.Errorf("%w: totalMedications must not be negative", ErrInvalidContext)
	}
	if c.MissedDoses < 0 {
		return fmt.Errorf("%w: missedDoses must not be negative", ErrInvalidContext)
	}
	return nil
}

// Recommendation is a tip generated on the device.
type Recommendation struct {
	Type     string `json:"type,omitempty"`
	Priority string `json:"priority,omitempty"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Action   string `json:"action,omitempty"`
}

// Insight is an observation about recent behaviour generated on the device.
type Insight struct {
	Type       string `json:"type,omitempty"`
	Urgency    string `json:"urgency,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}
