package config

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrRootConfigNotFound = errors.New("root configuration file not found")

// Loader finds configuration files on a file system. The root file
// lives at the top of the file system; nested files placed in
// directories leading to a document override it.
type Loader struct {
	fsys       fs.FS
	configName string
	configType string
	logger     *zap.Logger
}

type LoaderOption func(*Loader)

func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

func NewLoader(configName, configType string, fsys fs.FS, opts ...LoaderOption) *Loader {
	if configName == "" {
		panic("config name is not set")
	}

	l := &Loader{
		fsys:       fsys,
		configName: configName,
		configType: configType,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.logger == nil {
		l.logger = zap.NewNop()
	}

	return l
}

func (l *Loader) FS() fs.FS { return l.fsys }

func (l *Loader) fileName() string {
	if l.configType == "" {
		return l.configName
	}
	return l.configName + "." + l.configType
}

func (l *Loader) RootConfig() ([]byte, error) {
	data, err := fs.ReadFile(l.fsys, l.fileName())
	if err != nil {
		return nil, ErrRootConfigNotFound
	}
	return data, nil
}

// FindConfigChain returns the contents of all configuration files
// from the root down to the directory of name. name may point at
// a directory or at a document.
func (l *Loader) FindConfigChain(name string) ([][]byte, error) {
	dir, err := l.dirOf(name)
	if err != nil {
		return nil, err
	}

	fileName := l.fileName()
	candidates := []string{fileName}

	cur := ""
	for _, fragment := range strings.Split(filepath.ToSlash(dir), "/") {
		if fragment == "" || fragment == "." {
			continue
		}
		// [path.Join] works with [fs.FS] on all platforms.
		cur = path.Join(cur, fragment)
		candidates = append(candidates, path.Join(cur, fileName))
	}

	var result [][]byte
	for _, candidate := range candidates {
		data, err := fs.ReadFile(l.fsys, candidate)
		switch {
		case err == nil:
			l.logger.Debug("found config file", zap.String("path", candidate))
			result = append(result, data)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, errors.Wrapf(err, "failed to read %q", candidate)
		}
	}

	return result, nil
}

func (l *Loader) dirOf(name string) (string, error) {
	if name == "" || name == "-" {
		return ".", nil
	}

	info, err := fs.Stat(l.fsys, name)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get the path info for %q", name)
	}

	if info.IsDir() {
		return path.Clean(name), nil
	}
	return path.Dir(name), nil
}
