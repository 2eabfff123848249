// Package calendar renders the completion history as an iCalendar feed.
package calendar

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"github.com/btouchard/habitual/internal/habit"
)

const (
	prodID  = "-//habitual//habit tracker//EN"
	calName = "Habits"
	domain  = "habitual"

	propVersion  = "VERSION"
	propProdID   = "PRODID"
	propCalName  = "X-WR-CALNAME"
	propCalScale = "CALSCALE"
	propUID      = "UID"
	propSummary  = "SUMMARY"
	propDTStamp  = "DTSTAMP"
	propDTStart  = "DTSTART"
	propDTEnd    = "DTEND"
	propColor    = "COLOR" // RFC 7986
)

// emptyCalendar is served when no habit has any completion; an encoded
// VCALENDAR needs at least one component.
const emptyCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:" + prodID + "\r\n" +
	"X-WR-CALNAME:" + calName + "\r\n" +
	"END:VCALENDAR\r\n"

// Export encodes one all-day event per completed day of every habit.
// now stamps DTSTAMP on each event.
func Export(habits []habit.Habit, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(propVersion, "2.0")
	cal.Props.SetText(propProdID, prodID)
	cal.Props.SetText(propCalName, calName)
	cal.Props.SetText(propCalScale, "GREGORIAN")

	stamp := ical.NewProp(propDTStamp)
	stamp.SetDateTime(now.UTC())

	for _, h := range habits {
		for _, day := range h.CompletedDates {
			cal.Children = append(cal.Children, completionEvent(h, day, stamp).Component)
		}
	}

	if len(cal.Children) == 0 {
		return []byte(emptyCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encoding calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// UID returns the stable identifier of the event for habit id on day.
func UID(id string, day time.Time) string {
	return fmt.Sprintf("%s-%s@%s", id, day.Format("20060102"), domain)
}

func completionEvent(h habit.Habit, day time.Time, stamp *ical.Prop) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(propUID, UID(h.ID, day))
	event.Props.SetText(propSummary, "✓ "+h.Name)
	event.Props.Set(stamp)

	start := ical.NewProp(propDTStart)
	start.SetDate(day)
	event.Props.Set(start)

	end := ical.NewProp(propDTEnd)
	end.SetDate(day.AddDate(0, 0, 1))
	event.Props.Set(end)

	if h.Color != "" {
		event.Props.SetText(propColor, h.Color)
	}
	return event
}
