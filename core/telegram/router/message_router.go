package router

import (
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/dictbot/core/telegram"
	"github.com/m3rciful/dictbot/core/telegram/middleware"
	"github.com/m3rciful/dictbot/core/telegram/ui"
)

// FSM defines the minimal interface for an FSM manager.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

func inDialog(fsm FSM, c tele.Context) bool {
	return fsm != nil && c.Sender() != nil && fsm.InProgress(c.Sender().ID)
}

// TextRoutes builds handlers for plain text and documents. Text goes to the
// active dialog first, then to a command matched by name or alias, then to
// the registry fallback.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if inDialog(fsm, c) {
			return handleWithSummary(c, summary{name: "fsm", start: start}, func() error {
				return fsm.ManagerHandler(c)
			})
		}
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && !cmd.AdminOnly {
				return handleWithSummary(c, summary{name: normalizeHandlerName(key), start: start}, func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, summary{name: "fallback", start: start}, func() error {
					return fb(c)
				})
			}
		}
		if opts.UnknownText != nil {
			return handleWithSummary(c, summary{name: "unknown_text", start: start}, func() error {
				return opts.UnknownText(c)
			})
		}
		logHandlerSummary(c, summary{name: "unknown_text", start: start, status: "skip"}, nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if inDialog(fsm, c) {
			return handleWithSummary(c, summary{name: "fsm_document", start: start}, func() error {
				return fsm.ManagerHandler(c)
			})
		}
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, summary{name: "unexpected_document", start: start}, func() error {
				return opts.UnknownDocument(c)
			})
		}
		logHandlerSummary(c, summary{name: "unexpected_document", start: start, status: "skip"}, nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}

// AllRoutes assembles command, text, document and callback routes, taking
// fallbacks from fb when it is not nil.
func AllRoutes(reg *tg.Registry, fsm FSM, fb ui.FallbackProvider, cmdOpts CommandRouteOptions) []tg.Route {
	var textOpts TextOptions
	var cbOpts CallbackOptions
	if fb != nil {
		textOpts = TextOptions{UnknownText: fb.UnknownText(), UnknownDocument: fb.UnknownDocument()}
		cbOpts = CallbackOptions{NotFound: fb.UnknownCallback()}
	}
	routes := CommandRoutes(reg, cmdOpts)
	routes = append(routes, TextRoutes(fsm, reg, textOpts)...)
	return append(routes, CallbackRoute(reg, cbOpts))
}
