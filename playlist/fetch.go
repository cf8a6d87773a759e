package playlist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/airfeed/airfeed/auth"
	"github.com/airfeed/airfeed/constant"
	"github.com/airfeed/airfeed/filesystem"
	"github.com/airfeed/airfeed/log"
	"github.com/airfeed/airfeed/network"
)

// Fetcher retrieves playlist content and parses it into an ordered list of
// URIs. The format is chosen by MIME hint, or sniffed when the hint is empty
// or unknown.
type Fetcher interface {
	Fetch(uri, mimeType string, timeout time.Duration) ([]string, error)
}

// NewFetcher returns the standard fetcher, reading local paths through the
// afero filesystem and remote URLs through the shared HTTP client. Directory
// URIs expand by recursive listing filtered through the valid predicate; a
// nil predicate accepts everything.
func NewFetcher(valid func(string) bool) Fetcher {
	if valid == nil {
		valid = func(string) bool { return true }
	}
	return &fetcher{valid: valid}
}

type fetcher struct {
	valid func(string) bool
}

func (f *fetcher) Fetch(uri, mimeType string, timeout time.Duration) ([]string, error) {
	var (
		raw []byte
		err error
	)

	switch {
	case strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://"):
		raw, err = f.download(uri, timeout)
	default:
		path := strings.TrimPrefix(uri, "file://")
		fs := filesystem.API()

		if ok, _ := fs.IsDir(path); ok {
			return f.listDir(path)
		}
		raw, err = fs.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch playlist %q: %w", uri, err)
	}

	return parse(mimeType, raw), nil
}

func (f *fetcher) download(uri string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	if parsed, err := url.Parse(uri); err == nil {
		if creds, err := auth.GetCredentials(parsed.Host); err == nil {
			req.SetBasicAuth(creds.User, creds.Password)
		}
	}

	resp, err := network.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("server answered %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// listDir expands a directory into its valid files, sorted for a stable
// traversal order.
func (f *fetcher) listDir(dir string) ([]string, error) {
	var out []string

	err := filesystem.API().Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Debugf("playlist: cannot list %q: %v", path, err)
			return nil
		}
		if !info.IsDir() && f.valid(path) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list directory %q: %w", dir, err)
	}

	sort.Strings(out)
	return out, nil
}

// parse dispatches on the MIME hint, falling back to content sniffing.
func parse(mimeType string, raw []byte) []string {
	switch strings.ToLower(mimeType) {
	case "audio/x-mpegurl", "audio/mpegurl", "application/x-mpegurl", "application/vnd.apple.mpegurl":
		return parseLines(raw)
	case "audio/x-scpls":
		return parsePLS(raw)
	case "application/json":
		return parseJSON(raw)
	case "text/plain":
		return parseLines(raw)
	}

	trimmed := strings.TrimSpace(string(raw))
	switch {
	case strings.HasPrefix(strings.ToLower(trimmed), "[playlist]"):
		return parsePLS(raw)
	case strings.HasPrefix(trimmed, "["), strings.HasPrefix(trimmed, "{"):
		if entries := parseJSON(raw); entries != nil {
			return entries
		}
		return parseLines(raw)
	default:
		// Extended M3U and plain line lists share a shape: URIs separated by
		// newlines, with #-prefixed directives to ignore.
		return parseLines(raw)
	}
}

func parseLines(raw []byte) []string {
	var out []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func parsePLS(raw []byte) []string {
	var out []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		key, value, found := strings.Cut(line, "=")
		if !found || !strings.HasPrefix(strings.ToLower(key), "file") {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}

// parseJSON accepts an array of URI strings, or an array of objects carrying
// a path, url or uri field.
func parseJSON(raw []byte) []string {
	var entries []any
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Debugf("playlist: not a json playlist: %v", err)
		return nil
	}

	var out []string
	for _, entry := range entries {
		switch v := entry.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			for _, field := range []string{"path", "url", "uri"} {
				if s, ok := v[field].(string); ok && s != "" {
					out = append(out, s)
					break
				}
			}
		}
	}
	return out
}

// IsAudioFile is the default validity predicate for directory expansion,
// accepting common audio container extensions.
func IsAudioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".ogg", ".oga", ".flac", ".wav", ".aac", ".m4a", ".opus", ".wma":
		return true
	default:
		return false
	}
}
