package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/nikmy/roombook/internal/interval"
	"github.com/nikmy/roombook/internal/ledger"
	"github.com/nikmy/roombook/pkg/errors"
)

const (
	dateLayout  = "02.01.2006"
	clockLayout = "15:04"

	slotFormatHint = "ДД.ММ.ГГГГ ЧЧ:ММ-ЧЧ:ММ"
	dayFormatHint  = "ДД.ММ.ГГГГ"
)

func parseDate(text string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(text), loc)
	return day, errors.WrapFailf(err, "parse date %q", text)
}

func atClock(day time.Time, text string) (time.Time, error) {
	clock, err := time.Parse(clockLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, errors.WrapFailf(err, "parse time %q", text)
	}

	y, m, d := day.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, day.Location()), nil
}

// parseSlot reads "DD.MM.YYYY HH:MM-HH:MM" in loc.
func parseSlot(text string, loc *time.Location) (interval.Interval, error) {
	date, clocks, found := strings.Cut(strings.TrimSpace(text), " ")
	if !found {
		return interval.Interval{}, errors.Errorf("expected %s, got %q", slotFormatHint, text)
	}

	from, to, found := strings.Cut(clocks, "-")
	if !found {
		return interval.Interval{}, errors.Errorf("expected %s, got %q", slotFormatHint, text)
	}

	day, err := parseDate(date, loc)
	if err != nil {
		return interval.Interval{}, err
	}

	start, err := atClock(day, from)
	if err != nil {
		return interval.Interval{}, err
	}

	end, err := atClock(day, to)
	if err != nil {
		return interval.Interval{}, err
	}

	return interval.FromTime(start, end)
}

// parseDay reads "DD.MM.YYYY" in loc and returns the whole day.
func parseDay(text string, loc *time.Location) (interval.Interval, error) {
	day, err := parseDate(text, loc)
	if err != nil {
		return interval.Interval{}, err
	}
	return interval.FromTime(day, day.AddDate(0, 0, 1))
}

func formatSlot(i interval.Interval, loc *time.Location) string {
	start, end := i.StartTime().In(loc), i.EndTime().In(loc)

	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy == ey && sm == em && sd == ed {
		return fmt.Sprintf("%s %s-%s", start.Format(dateLayout), start.Format(clockLayout), end.Format(clockLayout))
	}

	return fmt.Sprintf(
		"%s %s - %s %s",
		start.Format(dateLayout), start.Format(clockLayout),
		end.Format(dateLayout), end.Format(clockLayout),
	)
}

func formatBookings(bookings []ledger.Booking, loc *time.Location) string {
	var sb strings.Builder
	for _, b := range bookings {
		sb.WriteString(fmt.Sprintf("`%s` %s: %s\n", b.ID, b.Resource, formatSlot(b.Interval, loc)))
	}
	return sb.String()
}
