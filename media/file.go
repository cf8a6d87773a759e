package media

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/airfeed/airfeed/filesystem"
	"github.com/airfeed/airfeed/log"
	"github.com/airfeed/airfeed/util"
	"github.com/samber/mo"
	"github.com/spf13/afero"
)

// fileRequest resolves a local file into a frame decoder.
type fileRequest struct {
	uri  string
	path string

	mu        sync.Mutex
	status    Status
	meta      map[string]string
	dec       *fileDecoder
	destroyed bool
}

// NewFileRequest creates a request for a local file URI or plain path.
func NewFileRequest(uri string) Request {
	return &fileRequest{
		uri:    uri,
		path:   strings.TrimPrefix(uri, "file://"),
		status: StatusUnresolved,
		meta:   map[string]string{MetaTitle: util.FileStem(uri)},
	}
}

func (r *fileRequest) URI() string { return r.uri }

func (r *fileRequest) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *fileRequest) Resolve(timeout time.Duration) Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == StatusResolved {
		return r.status
	}
	r.status = StatusResolving

	fs := filesystem.API()
	info, err := fs.Stat(r.path)
	if err != nil || info.IsDir() {
		log.Debugf("media: cannot resolve %q: %v", r.uri, err)
		r.status = StatusFailed
		return r.status
	}

	file, err := fs.Open(r.path)
	if err != nil {
		log.Debugf("media: cannot open %q: %v", r.uri, err)
		r.status = StatusFailed
		return r.status
	}

	r.dec = &fileDecoder{fs: fs, file: file, size: info.Size()}
	r.meta[MetaFilename] = r.path
	r.meta[MetaDuration] = formatSeconds(estimatePlayTime(info.Size()))
	r.status = StatusResolved
	return r.status
}

func (r *fileRequest) Metadata(key string) mo.Option[string] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.meta[key]; ok {
		return mo.Some(v)
	}
	return mo.None[string]()
}

func (r *fileRequest) AllMetadata() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(map[string]string, len(r.meta))
	for k, v := range r.meta {
		snapshot[k] = v
	}
	return snapshot
}

func (r *fileRequest) Filename() mo.Option[string] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusResolved {
		return mo.None[string]()
	}
	return mo.Some(r.path)
}

func (r *fileRequest) Decoder() mo.Option[Decoder] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dec == nil {
		return mo.None[Decoder]()
	}
	return mo.Some[Decoder](r.dec)
}

func (r *fileRequest) OnAir() {
	log.Infof("media: on air %q", r.uri)
}

func (r *fileRequest) Destroy() {
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
	}
}

// fileDecoder reads fixed-size frames from an open file. A short read marks
// the end of the track.
type fileDecoder struct {
	fs   afero.Afero
	file afero.File
	size int64

	mu      sync.Mutex
	offset  int64
	closed  bool
	cleanup string // path removed on close, for downloaded temporaries
}

func (d *fileDecoder) Fill(p []byte) (n int, remaining mo.Option[int], err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, mo.Some(0), nil
	}

	n, err = io.ReadFull(d.file, p)
	d.offset += int64(n)

	left := d.size - d.offset
	if left < 0 {
		left = 0
	}
	frames := int((left + FrameSize - 1) / FrameSize)

	if err == io.EOF || err == io.ErrUnexpectedEOF {
		// End of track is conveyed by the short write, not by the error.
		return n, mo.Some(0), nil
	}
	return n, mo.Some(frames), err
}

func (d *fileDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	err := d.file.Close()
	if d.cleanup != "" {
		_ = d.fs.Remove(d.cleanup)
	}
	return err
}

// estimatePlayTime derives a playable duration from a raw byte size using the
// engine's frame geometry.
func estimatePlayTime(size int64) time.Duration {
	frames := int((size + FrameSize - 1) / FrameSize)
	return DurationOfFrames(frames)
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Seconds())
}
