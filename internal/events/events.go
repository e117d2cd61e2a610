// Package events builds, edits and exports the meeting events attached to
// form responses.
package events

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/models"
)

// Defaults of a freshly created event.
const (
	DefaultTitle   = "Název události"
	DefaultNotes   = "Poznámky"
	DefaultAddress = "Adresa"
)

const productID = "-//Brandoo//Console//CS"

// NewForResponse returns the default event for resp owned by userID. The
// event starts and ends at now.
func NewForResponse(resp models.DetailedResponse, userID string, now time.Time) models.Event {
	title := DefaultTitle
	if alias := strings.TrimSpace(resp.Alias); alias != "" {
		title = "Schůzka s " + alias
	}
	at := now.UTC().Format(time.RFC3339Nano)
	return models.Event{
		ResponseID: resp.ID,
		UserID:     userID,
		Title:      title,
		Notes:      DefaultNotes,
		FromDate:   at,
		ToDate:     at,
		Address:    DefaultAddress,
		Files:      []string{},
	}
}

// SplitLinks splits the comma separated link list of an event.
func SplitLinks(links string) []string {
	var out []string
	for _, l := range strings.Split(links, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// JoinLinks is the inverse of SplitLinks.
func JoinLinks(links []string) string {
	return strings.Join(SplitLinks(strings.Join(links, ",")), ", ")
}

// ParseDate parses an event timestamp.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("events: date %q: %w", s, apperr.ErrInvalidInput)
	}
	return t, nil
}

// ICS renders e as an iCalendar document. All-day events are written as
// dates with an exclusive end one day after the last day.
func ICS(e models.Event, stamp time.Time) ([]byte, error) {
	from, err := ParseDate(e.FromDate)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(e.ToDate)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, fmt.Errorf("events: %s ends before it starts: %w", e.ID, apperr.ErrInvalidInput)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	uid := e.ID
	if uid == "" {
		uid = fmt.Sprintf("%s-%d", e.ResponseID, from.Unix())
	}
	ev := cal.AddEvent(uid + "@brandoo")
	ev.SetDtStampTime(stamp.UTC())
	if e.AllDay {
		ev.SetAllDayStartAt(from.UTC())
		ev.SetAllDayEndAt(to.UTC().AddDate(0, 0, 1))
	} else {
		ev.SetStartAt(from.UTC())
		ev.SetEndAt(to.UTC())
	}
	ev.SetSummary(e.Title)
	if e.Notes != "" {
		ev.SetDescription(e.Notes)
	}
	if e.Address != "" {
		ev.SetLocation(e.Address)
	}
	for _, link := range SplitLinks(e.Links) {
		ev.AddProperty(ics.ComponentPropertyUrl, link)
	}

	var buf bytes.Buffer
	if err := cal.SerializeTo(&buf); err != nil {
		return nil, fmt.Errorf("events: serialize %s: %w", e.ID, err)
	}
	return buf.Bytes(), nil
}

// FileName is the download name of the calendar file of e.
func FileName(e models.Event) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(e.Title))
	if name == "" {
		name = "event"
	}
	return name + ".ics"
}
