package entities

import (
	"strings"
	"time"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "02.01.2006", "2006-01", "January 2, 2006", "2 January 2006"}

// ParseDate accepts the common date spellings found in forms, sheets and
// model replies. Anything else yields nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return &t
		}
	}
	return nil
}
