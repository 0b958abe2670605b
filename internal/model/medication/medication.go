package medication

import (
	"errors"
	"fmt"
	"time"
)

// DefaultIcon is shown when the app did not pick one.
const DefaultIcon = "💊"

var ErrInvalidWeekday = errors.New("weekday must be between 0 and 6")

// Medication mirrors a reminder configured in the app.
type Medication struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Time      string `json:"time"`
	Days      []int  `json:"days"`
	Icon      string `json:"icon,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Validate checks the fields the prompt renders.
func (m Medication) Validate() error {
	for _, day := range m.Days {
		if day < 0 || day > 6 {
			return fmt.Errorf("medication %q: %w (got %d)", m.Name, ErrInvalidWeekday, day)
		}
	}
	return nil
}

// DisplayIcon returns the icon or the default one.
func (m Medication) DisplayIcon() string {
	if m.Icon == "" {
		return DefaultIcon
	}
	return m.Icon
}

// WeekdayNames renders active days as short English names, Sunday first.
func (m Medication) WeekdayNames() []string {
	names := make([]string, 0, len(m.Days))
	for _, day := range m.Days {
		if day < 0 || day > 6 {
			continue
		}
		names = append(names, time.Weekday(day).String()[:3])
	}
	return names
}
