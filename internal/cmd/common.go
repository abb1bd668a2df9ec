package cmd

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/workshop/internal/config"
	"github.com/stateful/workshop/internal/config/autoconfig"
	"github.com/stateful/workshop/internal/log"
)

const stdinName = "-"

var ErrNotText = errors.New("input is not text")

// readDocument reads a document from a file, from stdin when name
// is "-", or over HTTPS.
func readDocument(cmd *cobra.Command, name string) (string, error) {
	var data []byte

	switch {
	case name == stdinName:
		var err error
		data, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", errors.Wrap(err, "failed to read from stdin")
		}

	case strings.HasPrefix(name, "https://"):
		client := http.Client{
			Timeout: time.Second * 10,
		}
		if fTrace {
			client.Transport = httpLoggerMiddleware(cmd.ErrOrStderr())(http.DefaultTransport)
		}
		resp, err := client.Get(name)
		if err != nil {
			return "", errors.Wrapf(err, "failed to get a file %q", name)
		}
		data, err = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return "", errors.Wrap(err, "failed to read body")
		}
		if resp.StatusCode != http.StatusOK {
			return "", errors.Errorf("failed to get a file %q: %s", name, resp.Status)
		}

	default:
		var err error
		data, err = os.ReadFile(name)
		if err != nil {
			return "", errors.Wrapf(err, "failed to read file %q", name)
		}
	}

	if !isText(data) {
		return "", errors.Wrapf(ErrNotText, "%q is %s", name, mimetype.Detect(data).String())
	}

	return string(data), nil
}

func isText(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func writable(name string) bool {
	return name != stdinName && !strings.HasPrefix(name, "https://")
}

// writeDocument replaces the file contents keeping its permissions.
func writeDocument(name, text string) error {
	if !writable(name) {
		return errors.Errorf("cannot write back to %q", name)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(name); err == nil {
		mode = info.Mode().Perm()
	}

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return errors.WithStack(os.WriteFile(name, []byte(text), mode))
}

// newBuilder returns an autoconfig builder for the document name with
// command line flags applied on top of the configuration. The process
// logger is set from the resulting configuration.
func newBuilder(name string) (*autoconfig.Builder, error) {
	builder := autoconfig.NewBuilder()

	docPath := autoconfig.DocumentPath(stdinName)
	if writable(name) {
		docPath = autoconfig.DocumentPath(filepath.ToSlash(filepath.Clean(name)))
	}

	if err := builder.Decorate(func(autoconfig.DocumentPath) autoconfig.DocumentPath { return docPath }); err != nil {
		return nil, err
	}

	if err := builder.Decorate(func(c *config.Config) (*config.Config, error) {
		if fProvider != "" {
			c.Rewrite.Provider = fProvider
		}
		if fModel != "" {
			c.Rewrite.Model = fModel
		}
		if fTrace {
			c.Rewrite.Trace = true
		}
		if fLog || fLogVerbose {
			c.Log.Enabled = true
		}
		if fLogVerbose {
			c.Log.Verbose = true
		}
		return c, c.Validate()
	}); err != nil {
		return nil, err
	}

	if err := builder.Invoke(func(logger *zap.Logger) { log.Set(logger) }); err != nil {
		return nil, err
	}

	return builder, nil
}
