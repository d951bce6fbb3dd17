package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/dictbot/core/telegram"
	"github.com/m3rciful/dictbot/core/telegram/callbacks"
	"github.com/m3rciful/dictbot/core/telegram/middleware"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute routes every callback query through the registry by unique key.
// Handlers answer the query themselves; unknown keys get the not-found handler.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, _ := callbacks.ParseCallbackData(c.Callback())
		s := summary{
			name:   "callback." + normalizeHandlerName(key),
			start:  start,
			extras: []slog.Attr{slog.String("cb_key", key)},
		}

		cbHandler, ok := reg.GetCallback(key)
		if !ok {
			fallback := opts.NotFound
			if fallback == nil {
				fallback = reg.CallbackNotFound()
			}
			s.extras = append(s.extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, s, func() error {
				if fallback != nil {
					return fallback(c)
				}
				return c.Respond()
			})
		}
		return handleWithSummary(c, s, func() error { return cbHandler(c) })
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
