// Package schedule parses course schedule strings ("MWF 08:00-09:30") and
// detects pairwise time conflicts between active selections.
package schedule

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/appdev-aems/portal-api/internal/models"
)

// dayTokens maps schedule tokens to weekday names. "Th" must be consumed
// before single characters so "TTh" does not read as T + T + h.
var dayTokens = map[string]string{
	"M":  "Monday",
	"T":  "Tuesday",
	"W":  "Wednesday",
	"Th": "Thursday",
	"F":  "Friday",
}

var timeRe = regexp.MustCompile(`(\d+):(\d+)`)

// Interval is one course meeting on one weekday, in minutes from midnight.
type Interval struct {
	Day      string `json:"day"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	CourseID string `json:"courseId"`
}

// ParseDays expands a compact day token string ("MWF", "TTh", "Sat") into
// weekday names. Unrecognized tokens are dropped.
func ParseDays(daysPart string) []string {
	daysPart = strings.TrimSpace(daysPart)
	if daysPart == "" {
		return nil
	}
	lower := strings.ToLower(daysPart)
	if strings.HasPrefix(lower, "sat") {
		return []string{"Saturday"}
	}
	if strings.HasPrefix(lower, "sun") {
		return []string{"Sunday"}
	}

	var days []string
	for i := 0; i < len(daysPart); {
		if strings.HasPrefix(daysPart[i:], "Th") {
			days = append(days, dayTokens["Th"])
			i += 2
			continue
		}
		if day, ok := dayTokens[daysPart[i:i+1]]; ok {
			days = append(days, day)
		}
		i++
	}
	return days
}

// ParseTimeRange converts "H:MM-H:MM" into a start/end pair of minutes
// from midnight. It returns ok=false for malformed or missing input; such
// courses are excluded from conflict detection rather than erroring.
func ParseTimeRange(timePart string) (start, end int, ok bool) {
	timePart = strings.TrimSpace(timePart)
	if timePart == "" {
		return 0, 0, false
	}
	parts := strings.SplitN(timePart, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok1 := toMinutes(parts[0])
	end, ok2 := toMinutes(parts[1])
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return start, end, true
}

func toMinutes(s string) (int, bool) {
	m := timeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return h*60 + mm, true
}

// Intervals expands one course's schedule string into per-day intervals.
func Intervals(course models.Course) []Interval {
	daysPart, timePart, _ := strings.Cut(course.Schedule, " ")
	start, end, ok := ParseTimeRange(timePart)
	if !ok {
		return nil
	}
	days := ParseDays(daysPart)
	out := make([]Interval, 0, len(days))
	for _, d := range days {
		out = append(out, Interval{Day: d, Start: start, End: end, CourseID: course.ID})
	}
	return out
}

// DetectConflicts returns the IDs of courses whose meetings overlap another
// active course on the same weekday. Two intervals conflict when
// max(start1,start2) < min(end1,end2); intervals that merely touch at an
// endpoint do not conflict. The whole selection is recomputed each call.
func DetectConflicts(active []models.Course) map[string]struct{} {
	var intervals []Interval
	for _, c := range active {
		intervals = append(intervals, Intervals(c)...)
	}

	conflicts := make(map[string]struct{})
	for i := 0; i < len(intervals); i++ {
		for j := i + 1; j < len(intervals); j++ {
			a, b := intervals[i], intervals[j]
			if a.Day != b.Day {
				continue
			}
			if max(a.Start, b.Start) < min(a.End, b.End) {
				conflicts[a.CourseID] = struct{}{}
				conflicts[b.CourseID] = struct{}{}
			}
		}
	}
	return conflicts
}
