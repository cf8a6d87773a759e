package feed

import (
	"fmt"
	"sync"
	"time"

	"github.com/airfeed/airfeed/media"
	"github.com/samber/mo"
)

// fakeRequest is an in-memory media.Request whose decoder serves a fixed
// number of full frames followed by one short read.
type fakeRequest struct {
	mu        sync.Mutex
	uri       string
	status    media.Status
	resolveTo media.Status
	meta      map[string]string
	frames    int
	destroyed int
	onAir     int
}

func newFakeRequest(uri string, frames int) *fakeRequest {
	return &fakeRequest{
		uri:       uri,
		status:    media.StatusUnresolved,
		resolveTo: media.StatusResolved,
		frames:    frames,
		meta:      map[string]string{media.MetaTitle: uri},
	}
}

func (r *fakeRequest) withDuration(seconds float64) *fakeRequest {
	r.meta[media.MetaDuration] = fmt.Sprintf("%v", seconds)
	return r
}

func (r *fakeRequest) resolved() *fakeRequest {
	r.status = media.StatusResolved
	return r
}

func (r *fakeRequest) failing(to media.Status) *fakeRequest {
	r.resolveTo = to
	return r
}

func (r *fakeRequest) URI() string { return r.uri }

func (r *fakeRequest) Status() media.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *fakeRequest) Resolve(time.Duration) media.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = r.resolveTo
	return r.status
}

func (r *fakeRequest) Metadata(key string) mo.Option[string] {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.meta[key]; ok {
		return mo.Some(v)
	}
	return mo.None[string]()
}

func (r *fakeRequest) AllMetadata() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.meta))
	for k, v := range r.meta {
		out[k] = v
	}
	return out
}

func (r *fakeRequest) Filename() mo.Option[string] { return mo.Some(r.uri) }

func (r *fakeRequest) Decoder() mo.Option[media.Decoder] {
	return mo.Some[media.Decoder](&fakeDecoder{req: r})
}

func (r *fakeRequest) OnAir() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onAir++
}

func (r *fakeRequest) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.destroyed++
}

func (r *fakeRequest) destroyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyed
}

type fakeDecoder struct {
	req    *fakeRequest
	served int
	closed int
}

func (d *fakeDecoder) Fill(p []byte) (int, mo.Option[int], error) {
	if d.served >= d.req.frames {
		return 0, mo.Some(0), nil
	}
	d.served++
	return len(p), mo.Some(d.req.frames - d.served), nil
}

func (d *fakeDecoder) Close() error {
	d.closed++
	return nil
}

// supplierOf returns a NextFile feeding the given requests in order, then
// nothing.
func supplierOf(reqs ...media.Request) NextFile {
	i := 0
	var mu sync.Mutex
	return func() mo.Option[media.Request] {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(reqs) {
			return mo.None[media.Request]()
		}
		req := reqs[i]
		i++
		return mo.Some(req)
	}
}

// candidatesOf returns a NextRequest feeding the given requests in order,
// then nothing.
func candidatesOf(reqs ...media.Request) NextRequest {
	return NextRequest(supplierOf(reqs...))
}
