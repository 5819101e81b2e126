package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SearchSchedule is a recurring lead search configured by the broker.
type SearchSchedule struct {
	ID       string   `json:"id"`
	Niche    string   `json:"niche"`
	Location string   `json:"location"`
	Type     LeadType `json:"type"`
	Days     []string `json:"days"`
	Time     string   `json:"time"`
	Active   bool     `json:"active"`
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday, "dom": time.Sunday, "domingo": time.Sunday,
	"mon": time.Monday, "monday": time.Monday, "seg": time.Monday, "segunda": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday, "ter": time.Tuesday, "terça": time.Tuesday, "terca": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday, "qua": time.Wednesday, "quarta": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday, "qui": time.Thursday, "quinta": time.Thursday,
	"fri": time.Friday, "friday": time.Friday, "sex": time.Friday, "sexta": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday, "sab": time.Saturday, "sáb": time.Saturday, "sábado": time.Saturday, "sabado": time.Saturday,
}

// ParseWeekday maps an English or Portuguese day name or abbreviation to a weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return d, nil
}

// Weekdays returns the distinct weekdays of the schedule in input order.
func (s SearchSchedule) Weekdays() ([]time.Weekday, error) {
	seen := make(map[time.Weekday]bool, len(s.Days))
	out := make([]time.Weekday, 0, len(s.Days))
	for _, name := range s.Days {
		d, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out, nil
}

// Clock parses the HH:MM time of day.
func (s SearchSchedule) Clock() (hour, minute int, err error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s.Time), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid schedule time %q: want HH:MM", s.Time)
	}
	hour, err = strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid schedule hour in %q", s.Time)
	}
	minute, err = strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid schedule minute in %q", s.Time)
	}
	return hour, minute, nil
}

// Validate checks that the schedule can be executed.
func (s SearchSchedule) Validate() error {
	if strings.TrimSpace(s.Niche) == "" && strings.TrimSpace(s.Location) == "" {
		return fmt.Errorf("schedule needs a niche or a location")
	}
	if _, err := ParseLeadType(string(s.Type)); err != nil {
		return err
	}
	days, err := s.Weekdays()
	if err != nil {
		return err
	}
	if len(days) == 0 {
		return fmt.Errorf("schedule needs at least one day")
	}
	_, _, err = s.Clock()
	return err
}
