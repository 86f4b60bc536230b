// Package playback locates recorded touch-event files on disk.
package playback

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/devicelab-dev/calabash-bridge/pkg/config"
	"github.com/devicelab-dev/calabash-bridge/pkg/core"
	"github.com/devicelab-dev/calabash-bridge/pkg/logger"
)

// FileLoader reads <Dir>/<name>_<os>_<device>.base64.
type FileLoader struct {
	Dir string
}

// NewFileLoader uses dir, or the events directory under the home when dir
// is empty.
func NewFileLoader(dir string) (*FileLoader, error) {
	if dir == "" {
		return &FileLoader{Dir: config.GetEventsDir()}, nil
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("%s is invalid", dir)).WithCause(err)
	}
	return &FileLoader{Dir: expanded}, nil
}

// Path returns the file a recording would be read from.
func (l *FileLoader) Path(name, os, device string) string {
	return filepath.Join(l.Dir, fmt.Sprintf("%s_%s_%s.base64", name, os, device))
}

// Load returns the recording's base64 text. iOS 6 recordings fall back to
// the iOS 5 file when no iOS 6 file exists.
func (l *FileLoader) Load(name, osName, device string) (string, error) {
	path := l.Path(name, osName, device)
	if !exists(path) && osName == "ios6" {
		path = l.Path(name, "ios5", device)
	}
	if !exists(path) {
		return "", core.ErrMissingResource.
			WithMessage(fmt.Sprintf("Can't load playback data. %s does not exists", path)).
			WithDetails(map[string]interface{}{"name": name, "os": osName, "device": device})
	}

	data, err := os.ReadFile(path) //#nosec G304 -- recording path built from configured dir
	if err != nil {
		return "", core.ErrMissingResource.
			WithMessage(fmt.Sprintf("Can't load playback data from %s", path)).
			WithCause(err)
	}
	logger.Debug("Loaded playback data from %s (%d bytes)", path, len(data))
	return strings.TrimSpace(string(data)), nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
