package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule answers whether a moment falls inside configured business hours.
type Schedule struct {
	enabled  bool
	location *time.Location
	days     map[time.Weekday]bool
	startMin int
	endMin   int
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// AlwaysOpen is the schedule used when business hours are disabled.
func AlwaysOpen() Schedule {
	return Schedule{}
}

func (c CoreConfig) Schedule() (Schedule, error) {
	return NewSchedule(c.BusinessHours)
}

func NewSchedule(cfg BusinessHoursConfig) (Schedule, error) {
	if !cfg.Enabled {
		return AlwaysOpen(), nil
	}
	loc := time.Local
	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		loaded, err := time.LoadLocation(tz)
		if err != nil {
			return Schedule{}, fmt.Errorf("business_hours.timezone: %w", err)
		}
		loc = loaded
	}
	days := map[time.Weekday]bool{}
	for _, raw := range cfg.Days {
		key := strings.ToLower(strings.TrimSpace(raw))
		if key == "" {
			continue
		}
		day, ok := weekdayNames[key]
		if !ok {
			return Schedule{}, fmt.Errorf("business_hours.days: unknown day %q", raw)
		}
		days[day] = true
	}
	start, err := parseClock(cfg.Start)
	if err != nil {
		return Schedule{}, fmt.Errorf("business_hours.start: %w", err)
	}
	end, err := parseClock(cfg.End)
	if err != nil {
		return Schedule{}, fmt.Errorf("business_hours.end: %w", err)
	}
	return Schedule{
		enabled:  true,
		location: loc,
		days:     days,
		startMin: start,
		endMin:   end,
	}, nil
}

func (s Schedule) Enabled() bool {
	return s.enabled
}

// Within reports whether now is inside the schedule. A window whose end is
// before its start spans midnight and belongs to the day it starts on.
func (s Schedule) Within(now time.Time) bool {
	if !s.enabled {
		return true
	}
	if s.location != nil {
		now = now.In(s.location)
	}
	minute := now.Hour()*60 + now.Minute()
	if s.startMin == s.endMin {
		return s.days[now.Weekday()]
	}
	if s.startMin < s.endMin {
		return s.days[now.Weekday()] && minute >= s.startMin && minute < s.endMin
	}
	if minute >= s.startMin {
		return s.days[now.Weekday()]
	}
	if minute < s.endMin {
		return s.days[now.AddDate(0, 0, -1).Weekday()]
	}
	return false
}

func parseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	hh, mm, ok := strings.Cut(raw, ":")
	if !ok {
		return 0, fmt.Errorf("expected HH:MM, got %q", raw)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", raw)
	}
	total := hour*60 + minute
	if total > 24*60 {
		return 0, fmt.Errorf("time out of range %q", raw)
	}
	return total, nil
}
