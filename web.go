package adminform

import (
	"io"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
)

// Middleware wraps given http.Handler adding some extra functionality
type Middleware func(next http.Handler) http.Handler

// Apache combined log of every request
func Logging(out io.Writer) Middleware {
	return func(next http.Handler) http.Handler {
		return handlers.CombinedLoggingHandler(out, next)
	}
}

// Recovery middleware handles panics inside handlers
func Recovery() Middleware {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(log.Default()),
		handlers.PrintRecoveryStack(true),
	)
}

// Use applies multiple middleware to the given handler, first is outmost
func Use(h http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
