package telegram

import (
	"github.com/vitaliy-ukiru/fsm-telebot"
	"github.com/vitaliy-ukiru/fsm-telebot/storages/memory"
	"gopkg.in/telebot.v3"

	"github.com/nikmy/roombook/pkg/errors"
)

const (
	initialState = fsm.DefaultState

	bookReadResourceState fsm.State = "bookReadResource"
	bookReadSlotState     fsm.State = "bookReadSlot"
)

func (b *Bot) setupHandlers() {
	manager := fsm.NewManager(
		b.tg,
		nil,
		memory.NewStorage(),
		nil,
	)

	manager.Bind("/start", fsm.AnyState, b.start)

	manager.Bind("/book", fsm.AnyState, b.startBook)
	manager.Bind(telebot.OnText, bookReadResourceState, b.bookReadResource)
	manager.Bind(telebot.OnText, bookReadSlotState, b.bookReadSlot)

	manager.Bind("/cancel", fsm.AnyState, b.cancel)
	manager.Bind("/day", fsm.AnyState, b.day)
	manager.Bind("/free", fsm.AnyState, b.free)

	manager.Bind(telebot.OnText, initialState, b.start)
}

func (b *Bot) setState(s fsm.Context, target fsm.State) {
	err := s.Set(target)
	if err != nil {
		b.log.Warn(errors.WrapFailf(err, "set state to \"%s\"", target))
	}
}

func (b *Bot) final(c telebot.Context, s fsm.Context, msg string) error {
	b.setState(s, initialState)
	return c.Send(msg, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
}

func (b *Bot) fail(c telebot.Context, s fsm.Context, err error) error {
	b.log.Error(err)
	return b.final(c, s, somethingWentWrong)
}

func (b *Bot) start(c telebot.Context, s fsm.Context) error {
	return b.final(c, s, usage)
}

func (b *Bot) startBook(c telebot.Context, s fsm.Context) error {
	b.setState(s, bookReadResourceState)
	return c.Send(b.knownResources())
}

func (b *Bot) bookReadResource(c telebot.Context, s fsm.Context) error {
	resource, ok := b.checkResource(c.Text())
	if !ok {
		return b.final(c, s, "Такого ресурса нет")
	}

	err := s.Update("resource", resource)
	if err != nil {
		return b.fail(c, s, errors.WrapFail(err, "update state with resource"))
	}

	b.setState(s, bookReadSlotState)
	return c.Send("Введите дату и время в формате " + slotFormatHint)
}

func (b *Bot) bookReadSlot(c telebot.Context, s fsm.Context) error {
	var resource string
	err := s.Get("resource", &resource)
	if err != nil {
		return b.fail(c, s, errors.WrapFail(err, "get resource from state"))
	}

	sender := c.Sender()
	if sender == nil {
		return b.fail(c, s, errors.Fail("get sender"))
	}

	return b.final(c, s, b.book(requesterOf(sender.ID), resource, c.Text()))
}

func (b *Bot) cancel(c telebot.Context, s fsm.Context) error {
	sender := c.Sender()
	if sender == nil {
		return b.fail(c, s, errors.Fail("get sender"))
	}

	return b.final(c, s, b.cancelBooking(requesterOf(sender.ID), c.Args()))
}

func (b *Bot) day(c telebot.Context, s fsm.Context) error {
	return b.final(c, s, b.daySchedule(c.Args()))
}

func (b *Bot) free(c telebot.Context, s fsm.Context) error {
	return b.final(c, s, b.freeResources(c.Args()))
}
