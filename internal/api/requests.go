package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nikmy/roombook/internal/interval"
	"github.com/nikmy/roombook/pkg/errors"
)

type proposeRequest struct {
	Resource  string `json:"resource" validate:"required"`
	Requester string `json:"requester" validate:"required"`
	Start     int64  `json:"start" validate:"gte=0"`
	End       int64  `json:"end" validate:"gtfield=Start"`
}

// rescheduleRequest moves a booking. Empty resource keeps the current one.
type rescheduleRequest struct {
	Resource string `json:"resource"`
	Start    int64  `json:"start" validate:"gte=0"`
	End      int64  `json:"end" validate:"gtfield=Start"`
}

type windowQuery struct {
	From int64 `query:"from" validate:"gte=0"`
	To   int64 `query:"to" validate:"gtfield=From"`
}

type suggestQuery struct {
	From     int64 `query:"from" validate:"gte=0"`
	To       int64 `query:"to" validate:"gtfield=From"`
	Duration int64 `query:"duration" validate:"gt=0"`
	Max      int   `query:"max" validate:"gte=0"`
}

func (q windowQuery) interval() (interval.Interval, error) {
	return interval.New(q.From, q.To)
}

func (q suggestQuery) interval() (interval.Interval, error) {
	return interval.New(q.From, q.To)
}

// parseBody decodes and validates a json body into dst.
func (s *server) parseBody(c *fiber.Ctx, dst any) error {
	err := c.BodyParser(dst)
	if err != nil {
		return errors.WrapFail(err, "parse request body")
	}

	err = s.validate.Struct(dst)
	return errors.WrapFail(err, "validate request body")
}

// parseQuery decodes and validates query parameters into dst.
func (s *server) parseQuery(c *fiber.Ctx, dst any) error {
	err := c.QueryParser(dst)
	if err != nil {
		return errors.WrapFail(err, "parse query")
	}

	err = s.validate.Struct(dst)
	return errors.WrapFail(err, "validate query")
}

func (s *server) parseWindow(c *fiber.Ctx) (interval.Interval, error) {
	var q windowQuery
	err := s.parseQuery(c, &q)
	if err != nil {
		return interval.Interval{}, err
	}
	return q.interval()
}

func durationMs(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
