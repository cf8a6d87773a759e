package media

import (
	"strings"

	"github.com/samber/mo"
)

// StandardFactory creates requests by URI scheme: http(s) URLs download on
// resolution, everything else is treated as a local path.
type StandardFactory struct{}

func (StandardFactory) New(uri string) mo.Option[Request] {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return mo.None[Request]()
	}

	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return mo.Some(NewHTTPRequest(uri))
	}
	return mo.Some(NewFileRequest(uri))
}
