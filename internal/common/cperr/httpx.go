package cperr

import "github.com/zeromicro/go-zero/rest/httpx"

// RegisterHTTPErrorHandler wires httpx.ErrorCtx's default response for any
// error a Logic method returns, mapping a *Error to the status and generic
// body its Kind is reported with. Every cmd/*/main.go calls this once
// before starting its rest.Server.
func RegisterHTTPErrorHandler() {
	httpx.SetErrorHandler(func(err error) (int, any) {
		kind := KindOf(err)
		message := "An internal error occurred"
		if e, ok := As(err); ok {
			message = e.ClientMessage()
		}
		return HTTPStatus(kind), map[string]string{"error": message}
	})
}
