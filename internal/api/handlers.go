package api

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nikmy/roombook/internal/interval"
	"github.com/nikmy/roombook/internal/ledger"
)

func (s *server) handlePropose(c *fiber.Ctx) error {
	var req proposeRequest
	err := s.parseBody(c, &req)
	if err != nil {
		s.log.Warn(err)
		return s.sendError(c, http.StatusBadRequest, err.Error())
	}

	slot, err := interval.New(req.Start, req.End)
	if err != nil {
		return s.sendLedgerError(c, err)
	}

	b, err := s.ledger.Propose(req.Resource, slot, req.Requester)
	if err != nil {
		return s.sendLedgerError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(b)
}

func (s *server) handleGet(c *fiber.Ctx) error {
	b, err := s.ledger.Get(c.Params("id"))
	if err != nil {
		return s.sendLedgerError(c, err)
	}

	return c.Status(http.StatusOK).JSON(b)
}

func (s *server) handleCancel(c *fiber.Ctx) error {
	b, err := s.ledger.Cancel(c.Params("id"))
	if err != nil {
		return s.sendLedgerError(c, err)
	}

	return c.Status(http.StatusOK).JSON(b)
}

func (s *server) handleReschedule(c *fiber.Ctx) error {
	id := c.Params("id")

	var req rescheduleRequest
	err := s.parseBody(c, &req)
	if err != nil {
		s.log.Warn(err)
		return s.sendError(c, http.StatusBadRequest, err.Error())
	}

	slot, err := interval.New(req.Start, req.End)
	if err != nil {
		return s.sendLedgerError(c, err)
	}

	if req.Resource == "" {
		current, err := s.ledger.Get(id)
		if err != nil {
			return s.sendLedgerError(c, err)
		}
		req.Resource = current.Resource
	}

	b, err := s.ledger.Reschedule(id, req.Resource, slot)
	if err != nil {
		return s.sendLedgerError(c, err)
	}

	return c.Status(http.StatusOK).JSON(b)
}

func (s *server) handleResources(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(orEmpty(s.ledger.Catalog()))
}

func (s *server) handleAvailable(c *fiber.Ctx) error {
	window, err := s.parseWindow(c)
	if err != nil {
		return s.sendError(c, http.StatusBadRequest, err.Error())
	}

	free, err := s.ledger.Available(window)
	if err != nil {
		return s.sendLedgerError(c, err)
	}

	return c.Status(http.StatusOK).JSON(orEmpty(free))
}

func (s *server) handleBookingsFor(c *fiber.Ctx) error {
	return s.handleSearch(c, s.ledger.BookingsFor)
}

func (s *server) handleCheck(c *fiber.Ctx) error {
	return s.handleSearch(c, s.ledger.Check)
}

func (s *server) handleSearch(c *fiber.Ctx, search func(string, interval.Interval) ([]ledger.Booking, error)) error {
	window, err := s.parseWindow(c)
	if err != nil {
		return s.sendError(c, http.StatusBadRequest, err.Error())
	}

	found, err := search(c.Params("key"), window)
	if err != nil {
		return s.sendLedgerError(c, err)
	}

	return c.Status(http.StatusOK).JSON(orEmpty(found))
}

func (s *server) handleSuggest(c *fiber.Ctx) error {
	var q suggestQuery
	err := s.parseQuery(c, &q)
	if err != nil {
		return s.sendError(c, http.StatusBadRequest, err.Error())
	}

	window, err := q.interval()
	if err != nil {
		return s.sendLedgerError(c, err)
	}

	slots, err := s.ledger.Suggest(c.Params("key"), window, durationMs(q.Duration), q.Max)
	if err != nil {
		return s.sendLedgerError(c, err)
	}

	return c.Status(http.StatusOK).JSON(orEmpty(slots))
}

func (s *server) handleUtilisation(c *fiber.Ctx) error {
	window, err := s.parseWindow(c)
	if err != nil {
		return s.sendError(c, http.StatusBadRequest, err.Error())
	}

	key := c.Params("key")
	pct, err := s.ledger.Utilisation(key, window)
	if err != nil {
		return s.sendLedgerError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"resource": key, "percent": pct})
}

type searchRunResponse struct {
	At          int64  `json:"at"`
	Operation   string `json:"operation"`
	Resource    string `json:"resource"`
	Strategy    string `json:"strategy"`
	Size        int    `json:"size"`
	Comparisons int    `json:"comparisons"`
	ElapsedNs   int64  `json:"elapsed_ns"`

	LinearComparisons int   `json:"linear_comparisons"`
	BinaryComparisons int   `json:"binary_comparisons"`
	LinearElapsedNs   int64 `json:"linear_elapsed_ns"`
	BinaryElapsedNs   int64 `json:"binary_elapsed_ns"`
}

func (s *server) handleSearches(c *fiber.Ctx) error {
	runs := s.ledger.History()

	resp := make([]searchRunResponse, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, searchRunResponse{
			At:          run.At.UnixMilli(),
			Operation:   run.Operation,
			Resource:    run.Resource,
			Strategy:    run.Strategy,
			Size:        run.Size,
			Comparisons: run.Comparisons,
			ElapsedNs:   run.Elapsed.Nanoseconds(),

			LinearComparisons: run.LinearComparisons,
			BinaryComparisons: run.BinaryComparisons,
			LinearElapsedNs:   run.LinearElapsed.Nanoseconds(),
			BinaryElapsedNs:   run.BinaryElapsed.Nanoseconds(),
		})
	}

	return c.Status(http.StatusOK).JSON(resp)
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
