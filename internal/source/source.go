// Package source resolves the CLI url argument into an ordered list of
// extraction targets. The argument is either a literal URL or a path to a
// newline-delimited UTF-8 list of URLs.
package source

import (
	"bufio"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/digibook/digimonitor/internal/model"
)

// ErrInvalidInput marks arguments that are neither an existing file nor a
// well-formed URL, and list files that contain zero valid URLs. It is always
// surfaced before any extraction begins.
var ErrInvalidInput = eris.New("invalid input")

// Resolve turns the url argument into targets tagged with the selected
// platform. Order equals input order; a single URL yields one target.
func Resolve(arg string, platform model.Platform) ([]model.Target, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, eris.Wrap(ErrInvalidInput, "empty url argument")
	}

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return resolveFile(arg, platform)
	}

	if !wellFormed(arg) {
		return nil, eris.Wrapf(ErrInvalidInput, "%q is neither an existing file nor a URL", arg)
	}
	return []model.Target{{Index: 0, URL: arg, Platform: platform}}, nil
}

func resolveFile(path string, platform model.Platform) ([]model.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidInput, "open url list %s: %v", path, err)
	}
	defer f.Close()

	var targets []model.Target
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		if !wellFormed(raw) {
			zap.L().Warn("skipping malformed line in url list",
				zap.String("file", path),
				zap.Int("line", line),
				zap.String("value", raw),
			)
			continue
		}
		targets = append(targets, model.Target{Index: len(targets), URL: raw, Platform: platform})
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(ErrInvalidInput, "read url list %s: %v", path, err)
	}
	if len(targets) == 0 {
		return nil, eris.Wrapf(ErrInvalidInput, "url list %s contains no valid URLs", path)
	}
	return targets, nil
}

// wellFormed requires an http(s) scheme and a host. Platform-specific path
// shapes are checked later by the dispatcher, not here.
func wellFormed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
