package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/airfeed/airfeed/auth"
	"github.com/airfeed/airfeed/constant"
	"github.com/airfeed/airfeed/filesystem"
	"github.com/airfeed/airfeed/log"
	"github.com/airfeed/airfeed/network"
	"github.com/airfeed/airfeed/util"
	"github.com/airfeed/airfeed/where"
	"github.com/samber/mo"
)

// httpRequest resolves a remote media URL by downloading it to a temporary
// file, then decoding from there. Resolution is the only part that touches
// the network; once resolved the pull path reads from local disk.
type httpRequest struct {
	uri string

	mu        sync.Mutex
	status    Status
	meta      map[string]string
	dec       *fileDecoder
	path      string
	destroyed bool
}

// NewHTTPRequest creates a request for an http(s) URL.
func NewHTTPRequest(uri string) Request {
	return &httpRequest{
		uri:    uri,
		status: StatusUnresolved,
		meta:   map[string]string{MetaTitle: util.FileStem(uri)},
	}
}

func (r *httpRequest) URI() string { return r.uri }

func (r *httpRequest) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *httpRequest) Resolve(timeout time.Duration) Status {
	r.mu.Lock()
	if r.status == StatusResolved {
		r.mu.Unlock()
		return StatusResolved
	}
	r.status = StatusResolving
	r.mu.Unlock()

	status := r.download(timeout)

	r.mu.Lock()
	r.status = status
	r.mu.Unlock()
	return status
}

func (r *httpRequest) download(timeout time.Duration) Status {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.uri, nil)
	if err != nil {
		log.Debugf("media: bad url %q: %v", r.uri, err)
		return StatusFailed
	}
	req.Header.Set("User-Agent", constant.UserAgent)

	if parsed, err := url.Parse(r.uri); err == nil {
		if creds, err := auth.GetCredentials(parsed.Host); err == nil {
			req.SetBasicAuth(creds.User, creds.Password)
		}
	}

	resp, err := network.Client.Do(req)
	if err != nil {
		return classify(ctx, r.uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		log.Debugf("media: %q answered %s", r.uri, resp.Status)
		return StatusFailed
	}

	fs := filesystem.API()
	tmp, err := fs.TempFile(where.Temp(), "airfeed-*")
	if err != nil {
		log.Errorf("media: cannot create temporary file: %v", err)
		return StatusFailed
	}

	size, err := io.Copy(tmp, resp.Body)
	if err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmp.Name())
		return classify(ctx, r.uri, err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmp.Name())
		log.Errorf("media: cannot rewind %q: %v", tmp.Name(), err)
		return StatusFailed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.path = tmp.Name()
	r.dec = &fileDecoder{fs: fs, file: tmp, size: size, cleanup: tmp.Name()}
	r.meta[MetaFilename] = tmp.Name()
	r.meta[MetaDuration] = formatSeconds(estimatePlayTime(size))
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		r.meta[MetaMimeType] = ct
	}
	if name := resp.Header.Get("icy-name"); name != "" {
		r.meta[MetaTitle] = name
	}
	return StatusResolved
}

// classify maps a transport error onto the request status, distinguishing
// deadline expiry from plain failure.
func classify(ctx context.Context, uri string, err error) Status {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Debugf("media: resolving %q timed out", uri)
		return StatusTimeout
	}
	log.Debugf("media: resolving %q failed: %v", uri, err)
	return StatusFailed
}

func (r *httpRequest) Metadata(key string) mo.Option[string] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.meta[key]; ok {
		return mo.Some(v)
	}
	return mo.None[string]()
}

func (r *httpRequest) AllMetadata() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(map[string]string, len(r.meta))
	for k, v := range r.meta {
		snapshot[k] = v
	}
	return snapshot
}

func (r *httpRequest) Filename() mo.Option[string] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.path == "" {
		return mo.None[string]()
	}
	return mo.Some(r.path)
}

func (r *httpRequest) Decoder() mo.Option[Decoder] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dec == nil {
		return mo.None[Decoder]()
	}
	return mo.Some[Decoder](r.dec)
}

func (r *httpRequest) OnAir() {
	log.Infof("media: on air %q", r.uri)
}

func (r *httpRequest) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.destroyed {
		log.Warnf("media: request %q destroyed twice", r.uri)
		return
	}
	r.destroyed = true
	r.status = StatusUnresolved

	if r.dec != nil {
		_ = r.dec.Close()
		r.dec = nil
	} else if r.path != "" {
		_ = filesystem.API().Remove(r.path)
	}
	r.path = ""
}
