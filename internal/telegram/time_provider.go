package telegram

import "time"

type timeProvider interface {
	Now() time.Time
	Location() *time.Location
}

// stdTime reports wall clock shifted into the bot's fixed zone.
type stdTime struct {
	loc *time.Location
}

func newStdTime(utcDiff time.Duration) stdTime {
	return stdTime{loc: time.FixedZone("", int(utcDiff.Seconds()))}
}

func (s stdTime) Location() *time.Location {
	return s.loc
}

func (s stdTime) Now() time.Time {
	return time.Now().In(s.loc)
}
