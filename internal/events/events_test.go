package events

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/brandoo"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/testutil"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func TestNewForResponse(t *testing.T) {
	e := NewForResponse(models.DetailedResponse{ID: "r1", Alias: "Jan Novák"}, "u1", now)
	assert.Equal(t, "Schůzka s Jan Novák", e.Title)
	assert.Equal(t, "r1", e.ResponseID)
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, DefaultNotes, e.Notes)
	assert.Equal(t, DefaultAddress, e.Address)
	assert.Equal(t, e.FromDate, e.ToDate)
	assert.False(t, e.AllDay)
	assert.NotNil(t, e.Files)

	e = NewForResponse(models.DetailedResponse{ID: "r2", Alias: "  "}, "u1", now)
	assert.Equal(t, DefaultTitle, e.Title)
}

func TestLinks(t *testing.T) {
	assert.Equal(t, []string{"https://a.cz", "https://b.cz"}, SplitLinks(" https://a.cz ,, https://b.cz "))
	assert.Empty(t, SplitLinks(""))
	assert.Equal(t, "https://a.cz, https://b.cz", JoinLinks([]string{"https://a.cz ,https://b.cz"}))
}

func parse(t *testing.T, data []byte) *ics.VEvent {
	t.Helper()
	cal, err := ics.ParseCalendar(bytes.NewReader(data))
	require.NoError(t, err)
	evs := cal.Events()
	require.Len(t, evs, 1)
	return evs[0]
}

func TestICS(t *testing.T) {
	e := models.Event{
		ID:       "event-1",
		Title:    "Schůzka s Janem",
		Notes:    "Probrat nabídku",
		Address:  "Praha",
		FromDate: "2026-03-20T09:30:00.000Z",
		ToDate:   "2026-03-20T10:30:00.000Z",
		Links:    "https://meet.google.com/abc, https://brandoo.cz",
	}
	data, err := ICS(e, now)
	require.NoError(t, err)

	ev := parse(t, data)
	assert.Equal(t, "Schůzka s Janem", ev.GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "Probrat nabídku", ev.GetProperty(ics.ComponentPropertyDescription).Value)
	assert.Equal(t, "Praha", ev.GetProperty(ics.ComponentPropertyLocation).Value)
	assert.Equal(t, "20260320T093000Z", ev.GetProperty(ics.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20260320T103000Z", ev.GetProperty(ics.ComponentPropertyDtEnd).Value)

	var urls []string
	for _, p := range ev.Properties {
		if p.IANAToken == string(ics.ComponentPropertyUrl) {
			urls = append(urls, p.Value)
		}
	}
	assert.Equal(t, []string{"https://meet.google.com/abc", "https://brandoo.cz"}, urls)
}

func TestICSAllDay(t *testing.T) {
	e := models.Event{ID: "event-2", Title: "Veletrh", AllDay: true, FromDate: "2026-04-01T00:00:00Z", ToDate: "2026-04-02T00:00:00Z"}
	data, err := ICS(e, now)
	require.NoError(t, err)

	ev := parse(t, data)
	start := ev.GetProperty(ics.ComponentPropertyDtStart)
	assert.Equal(t, "20260401", start.Value)
	assert.Equal(t, []string{"DATE"}, start.ICalParameters["VALUE"])
	assert.Equal(t, "20260403", ev.GetProperty(ics.ComponentPropertyDtEnd).Value)
	assert.Nil(t, ev.GetProperty(ics.ComponentPropertyLocation))
}

func TestICSRejectsBadDates(t *testing.T) {
	_, err := ICS(models.Event{FromDate: "tomorrow", ToDate: "2026-04-02T00:00:00Z"}, now)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = ICS(models.Event{FromDate: "2026-04-02T00:00:00Z", ToDate: "2026-04-01T00:00:00Z"}, now)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Schůzka_ plán.ics", FileName(models.Event{Title: "Schůzka: plán"}))
	assert.Equal(t, "event.ics", FileName(models.Event{}))
}

func TestPatchValidate(t *testing.T) {
	empty := ""
	assert.ErrorIs(t, Patch{Title: &empty}.Validate(), apperr.ErrInvalidInput)

	from, to := now, now.Add(-time.Hour)
	assert.ErrorIs(t, Patch{FromDate: &from, ToDate: &to}.Validate(), apperr.ErrInvalidInput)

	title := "Nový název"
	require.NoError(t, Patch{Title: &title}.Validate())
}

func newService(t *testing.T) (*Service, *testutil.FakeBackend) {
	t.Helper()
	backend := testutil.NewFakeBackend(t)
	creds := brandoo.StaticCredentials{Token: testutil.FakeToken, PrivateKey: testutil.FakePrivateKey, UserID: testutil.FakeUserID}
	svc := NewService(brandoo.New(brandoo.Options{BaseURL: backend.URL(), Timeout: 5 * time.Second}, creds, nil))
	svc.now = func() time.Time { return now }
	return svc, backend
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t)

	_, err := svc.CreateForResponse(ctx, models.DetailedResponse{ID: "response-9", Alias: "Eva"}, testutil.FakeUserID)
	require.NoError(t, err)
	stored := backend.Events()
	require.Len(t, stored, 1)
	assert.Equal(t, "Schůzka s Eva", stored[0].Title)
	id := stored[0].ID

	list, err := svc.ForResponse(ctx, "response-9")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = svc.ForUser(ctx, testutil.FakeUserID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	title, links, allDay := "Oběd", "https://a.cz ,https://b.cz", true
	end := now.Add(2 * time.Hour)
	e, err := svc.Update(ctx, id, Patch{Title: &title, Links: &links, AllDay: &allDay, ToDate: &end})
	require.NoError(t, err)
	assert.Equal(t, "Oběd", e.Title)
	assert.Equal(t, "https://a.cz, https://b.cz", e.Links)
	assert.True(t, e.AllDay)
	assert.Equal(t, DefaultNotes, e.Notes)

	early := now.Add(-time.Hour)
	_, err = svc.Update(ctx, id, Patch{ToDate: &early})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	name, data, err := svc.Calendar(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Oběd.ics", name)
	assert.Contains(t, string(data), "BEGIN:VEVENT")

	require.NoError(t, svc.Delete(ctx, id))
	assert.Empty(t, backend.Events())
	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLinkChips(t *testing.T) {
	ctx := context.Background()
	svc, backend := newService(t)

	chips := svc.LinkChips(ctx, "https://meet.google.com/x, https://brandoo.cz")
	assert.Equal(t, []LinkChip{
		{Link: "https://meet.google.com/x", Title: "Google Meet"},
		{Link: "https://brandoo.cz", Title: "Title of https://brandoo.cz"},
	}, chips)

	backend.Fail(http.MethodGet, "get-title", http.StatusBadGateway)
	chips = svc.LinkChips(ctx, "https://brandoo.cz")
	assert.Equal(t, []LinkChip{{Link: "https://brandoo.cz", Title: "https://brandoo.cz"}}, chips)
	assert.Empty(t, svc.LinkChips(ctx, ""))
}
