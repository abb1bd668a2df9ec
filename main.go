package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/stateful/workshop/internal/cmd"
	"github.com/stateful/workshop/internal/log"
	"github.com/stateful/workshop/internal/version"
)

// These are variables so that they can be set during the build time.
var (
	BuildDate    = "unknown"
	BuildVersion = "0.0.0"
	Commit       = "unknown"
)

func root() int {
	version.BuildDate = BuildDate
	version.BuildVersion = BuildVersion
	version.Commit = Commit

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer log.Flush()

	root := cmd.Root()
	root.Version = version.String()
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func main() {
	os.Exit(root())
}
