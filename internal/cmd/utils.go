package cmd

import (
	"io"
	"net/http"
	"os"

	"github.com/henvic/httpretty"
	"github.com/mgutz/ansi"

	"github.com/stateful/workshop/internal/term"
)

func httpLoggerMiddleware(out io.Writer) func(http.RoundTripper) http.RoundTripper {
	logger := &httpretty.Logger{
		Time:            true,
		TLS:             false,
		Colors:          isTerminal(),
		RequestHeader:   true,
		RequestBody:     true,
		ResponseHeader:  true,
		ResponseBody:    false,
		Formatters:      []httpretty.Formatter{&httpretty.JSONFormatter{}},
		MaxResponseBody: 50000,
	}
	logger.SetOutput(out)
	return logger.RoundTripper
}

func isTerminal() bool {
	return term.IsTerminal(os.Stderr)
}

// colorize applies an ansi style only when out is a terminal.
func colorize(out io.Writer, s, style string) string {
	if f, ok := out.(*os.File); ok && term.IsTerminal(f) {
		return ansi.Color(s, style)
	}
	return s
}
