// Package stats aggregates statistic value histories for the dashboard.
package stats

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/models"
)

// Interval selects which values of a history are aggregated.
type Interval string

const (
	Today     Interval = "today"
	LastWeek  Interval = "last-week"
	LastMonth Interval = "last-month"
	LastYear  Interval = "last-year"
	All       Interval = "all"
)

// DefaultInterval is used when none is given.
const DefaultInterval = LastWeek

// Intervals lists the selectable intervals with their labels.
var Intervals = []struct {
	Interval Interval `json:"interval"`
	Title    string   `json:"title"`
}{
	{Today, "Dnes"},
	{LastWeek, "Minulý týden"},
	{LastMonth, "Minulý měsíc"},
	{LastYear, "Minulý rok"},
	{All, "Vše"},
}

// ParseInterval reads an interval name. The empty string selects
// DefaultInterval.
func ParseInterval(s string) (Interval, error) {
	if s == "" {
		return DefaultInterval, nil
	}
	for _, iv := range Intervals {
		if string(iv.Interval) == s {
			return iv.Interval, nil
		}
	}
	return "", fmt.Errorf("stats: interval %q: %w", s, apperr.ErrInvalidInput)
}

// timestampLayouts are the createdAt forms the backend sends. Timestamps
// without a zone are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func createdAt(v models.StatisticValue) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Filter keeps the values recorded within iv before now. Values with an
// unreadable timestamp only pass the All interval.
func Filter(values []models.StatisticValue, iv Interval, now time.Time) []models.StatisticValue {
	if iv == All {
		return values
	}
	var after time.Time
	switch iv {
	case LastWeek:
		after = now.AddDate(0, 0, -7)
	case LastMonth:
		after = now.AddDate(0, -1, 0)
	case LastYear:
		after = now.AddDate(-1, 0, 0)
	}

	out := make([]models.StatisticValue, 0, len(values))
	for _, v := range values {
		at, ok := createdAt(v)
		if !ok {
			continue
		}
		if iv == Today {
			y1, m1, d1 := at.In(now.Location()).Date()
			y2, m2, d2 := now.Date()
			if y1 == y2 && m1 == m2 && d1 == d2 {
				out = append(out, v)
			}
			continue
		}
		if at.After(after) {
			out = append(out, v)
		}
	}
	return out
}

// ParseClock reads an HH:MM:SS value.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("stats: time %q: %w", s, apperr.ErrInvalidInput)
	}
	var total time.Duration
	for i, unit := range []time.Duration{time.Hour, time.Minute, time.Second} {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("stats: time %q: %w", s, apperr.ErrInvalidInput)
		}
		total += time.Duration(n) * unit
	}
	return total, nil
}

// FormatClock prints d as HH:MM:SS on a 24 hour clock.
func FormatClock(d time.Duration) string {
	secs := int64(d/time.Second) % (24 * 3600)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}

// Count is the number of recorded values.
func Count(values []models.StatisticValue) int {
	return len(values)
}

// AverageTime averages HH:MM:SS values. Unreadable values are skipped; ok
// is false when nothing could be averaged.
func AverageTime(values []models.StatisticValue) (avg string, ok bool) {
	var total time.Duration
	n := 0
	for _, v := range values {
		d, err := ParseClock(v.Time)
		if err != nil {
			continue
		}
		total += d
		n++
	}
	if n == 0 {
		return "", false
	}
	return FormatClock(total / time.Duration(n)), true
}

// BooleanSplit counts true and false values.
func BooleanSplit(values []models.StatisticValue) (trueN, falseN int) {
	for _, v := range values {
		if v.Boolean {
			trueN++
		} else {
			falseN++
		}
	}
	return trueN, falseN
}

// FalseShare is the share of false values among all boolean values, in
// [0, 1]. It is 0 for an empty history.
func FalseShare(values []models.StatisticValue) float64 {
	t, f := BooleanSplit(values)
	if t+f == 0 {
		return 0
	}
	return float64(f) / float64(t+f)
}

// Point is one chart sample.
type Point struct {
	At time.Time `json:"at"`
	Y  float64   `json:"y"`
}

// CumulativeSeries numbers the values 1..N by recording time.
func CumulativeSeries(values []models.StatisticValue) []Point {
	out := make([]Point, 0, len(values))
	for _, v := range values {
		at, ok := createdAt(v)
		if !ok {
			continue
		}
		out = append(out, Point{At: at, Y: float64(len(out) + 1)})
	}
	return out
}

// BooleanSeries returns separate cumulative series for true and false values.
func BooleanSeries(values []models.StatisticValue) (trueSeries, falseSeries []Point) {
	var ts, fs []models.StatisticValue
	for _, v := range values {
		if v.Boolean {
			ts = append(ts, v)
		} else {
			fs = append(fs, v)
		}
	}
	return CumulativeSeries(ts), CumulativeSeries(fs)
}

// TimeSeries plots each HH:MM:SS value in seconds.
func TimeSeries(values []models.StatisticValue) []Point {
	out := make([]Point, 0, len(values))
	for _, v := range values {
		at, ok := createdAt(v)
		if !ok {
			continue
		}
		d, err := ParseClock(v.Time)
		if err != nil {
			continue
		}
		out = append(out, Point{At: at, Y: d.Seconds()})
	}
	return out
}

// Summary is the aggregated view of one statistic over an interval.
type Summary struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Type        models.StatisticType `json:"type"`
	Interval    Interval             `json:"interval"`
	Count       int                  `json:"count"`
	AverageTime string               `json:"averageTime,omitempty"`
	True        int                  `json:"true,omitempty"`
	False       int                  `json:"false,omitempty"`
	FalseShare  float64              `json:"falseShare,omitempty"`
	Series      map[string][]Point   `json:"series"`
}

// Summarize aggregates s over iv according to its type.
func Summarize(s models.Statistic, iv Interval, now time.Time) Summary {
	values := Filter(s.Values, iv, now)
	sum := Summary{
		ID:       s.ID,
		Name:     s.Name,
		Type:     s.Type,
		Interval: iv,
		Count:    Count(values),
		Series:   map[string][]Point{},
	}
	switch s.Type {
	case models.StatisticTime:
		sum.AverageTime, _ = AverageTime(values)
		sum.Series["time"] = TimeSeries(values)
	case models.StatisticBoolean:
		sum.True, sum.False = BooleanSplit(values)
		sum.FalseShare = FalseShare(values)
		sum.Series["true"], sum.Series["false"] = BooleanSeries(values)
	case models.StatisticNumber, models.StatisticText:
		sum.Series["count"] = CumulativeSeries(values)
	}
	return sum
}
