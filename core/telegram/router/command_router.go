// Package router turns registry entries and conversation handlers into telebot routes.
package router

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/adboard/core/telegram"
)

// CommandRoutes binds every registered slash command to its handler.
// Aliases are matched by the text route instead.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, def := range cmds {
		handler := def.Handler
		handlerName := "command." + normalizeHandlerName(name)
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler: func(c tele.Context) error {
				return handleWithSummary(c, handlerName, func() error { return handler(c) })
			},
		})
	}
	return routes
}
