// autoconfig provides a way to create various instances from the [config.Config] like
// [rewrite.Generator] or [zap.Logger].
//
// For example, to instantiate [rewrite.Generator], you can write:
//
//	autoconfig.NewBuilder().Invoke(func(gen rewrite.Generator) error {
//	    ...
//	})
//
// Treat it as a dependency injection mechanism.
package autoconfig

import (
	"context"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/stateful/workshop/internal/config"
	"github.com/stateful/workshop/pkg/workshop/rewrite"
)

// DocumentPath is the path of the document being edited, relative to
// the loader's file system. Nested configuration files are looked up
// on the way to it. Empty means only the root configuration applies.
type DocumentPath string

// Env holds variables used to look up secrets like API keys.
type Env map[string]string

func (e Env) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// TraceWriter receives HTTP traces when tracing is enabled.
type TraceWriter io.Writer

type Builder struct {
	container *dig.Container
}

func NewBuilder() *Builder {
	b := &Builder{container: dig.New()}

	mustProvide(b.container.Provide(getDocumentPath))
	mustProvide(b.container.Provide(getLoader))
	mustProvide(b.container.Provide(getConfig))
	mustProvide(b.container.Provide(getEnv))
	mustProvide(b.container.Provide(getLogger))
	mustProvide(b.container.Provide(getTraceWriter))
	mustProvide(b.container.Provide(getGenerator))

	return b
}

func mustProvide(err error) {
	if err != nil {
		panic("failed to provide: " + err.Error())
	}
}

// Decorate replaces a provided value, for example the [config.Loader]
// in tests or the [DocumentPath] from command line arguments.
func (b *Builder) Decorate(decorator interface{}, opts ...dig.DecorateOption) error {
	return errors.WithStack(b.container.Decorate(decorator, opts...))
}

// Invoke is used to invoke the function with the given dependencies.
// The package will automatically figure out how to instantiate them
// using the available configuration.
func (b *Builder) Invoke(function interface{}, opts ...dig.InvokeOption) error {
	err := b.container.Invoke(function, opts...)
	return dig.RootCause(err)
}

func getDocumentPath() DocumentPath { return "" }

func getLoader() (*config.Loader, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return config.NewLoader("workshop", "yaml", os.DirFS(cwd)), nil
}

func getConfig(loader *config.Loader, doc DocumentPath) (*config.Config, error) {
	// Documents outside of the working directory or read from stdin
	// only get the root configuration.
	name := string(doc)
	if name == "-" || !fs.ValidPath(name) {
		name = ""
	}

	chain, err := loader.FindConfigChain(name)
	if err != nil {
		return nil, err
	}

	cfg, err := config.ParseYAML(chain...)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(cfg *config.Config, loader *config.Loader) (Env, error) {
	env := make(Env)

	for _, source := range cfg.Env.Sources {
		data, err := fs.ReadFile(loader.FS(), source)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %q", source)
		}

		parsed, err := godotenv.UnmarshalBytes(data)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %q", source)
		}
		for k, v := range parsed {
			env[k] = v
		}
	}

	// The system environment takes precedence over env files.
	if cfg.Env.UseSystemEnv {
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				env[k] = v
			}
		}
	}

	return env, nil
}

func getLogger(c *config.Config) (*zap.Logger, error) {
	if c == nil || !c.Log.Enabled {
		return zap.NewNop(), nil
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zap.InfoLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	if c.Log.Verbose {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zapConfig.Development = true
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	if c.Log.Path != "" {
		zapConfig.OutputPaths = []string{c.Log.Path}
		zapConfig.ErrorOutputPaths = []string{c.Log.Path}
	}

	l, err := zapConfig.Build()
	return l, errors.WithStack(err)
}

func getTraceWriter() TraceWriter { return os.Stderr }

func getGenerator(cfg *config.Config, env Env, trace TraceWriter, logger *zap.Logger) (rewrite.Generator, error) {
	apiKey, _ := env.Lookup(cfg.Rewrite.APIKeyEnv)
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.Wrapf(rewrite.ErrMissingAPIKey, "set %s in the environment or an env file", cfg.Rewrite.APIKeyEnv)
	}

	opts := rewrite.Options{
		Provider:  cfg.Rewrite.Provider,
		APIKey:    apiKey,
		Model:     cfg.Rewrite.Model,
		BaseURL:   cfg.Rewrite.BaseURL,
		Timeout:   cfg.Rewrite.Timeout,
		CacheSize: cfg.Rewrite.CacheSize,
	}
	if cfg.Rewrite.Trace {
		opts.Trace = trace
	}

	return rewrite.NewGenerator(context.Background(), opts, logger.Named("rewrite"))
}
