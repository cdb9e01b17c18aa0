package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00\x90w\x53\xde")

type testPage struct {
	loading *TextIndicator
	result  *HTMLRegion
}

func newTestPage() testPage {
	return testPage{loading: &TextIndicator{W: io.Discard}, result: &HTMLRegion{}}
}

func (p testPage) page(prompt, style string) Page {
	return Page{
		Prompt:  StaticField(prompt),
		Style:   StaticField(style),
		Loading: p.loading,
		Result:  p.result,
	}
}

func newDispatcher(t *testing.T, srv *httptest.Server) *Dispatcher {
	t.Helper()
	d, err := New(srv.Client(), srv.URL)
	require.NoError(t, err)
	return d
}

func TestDispatchSuccess(t *testing.T) {
	tp := newTestPage()
	tp.result.SetError("Error: stale")

	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, Endpoint, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.True(t, tp.loading.Visible(), "loading should be visible while pending")
		assert.Empty(t, tp.result.Text(), "previous result should be cleared")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	d := newDispatcher(t, srv)
	require.NoError(t, d.Dispatch(context.Background(), tp.page("a cat", "watercolor")))

	assert.Equal(t, Request{Prompt: "a cat", Style: "watercolor"}, got)
	assert.False(t, tp.loading.Visible())
	assert.Equal(t, Idle, d.State())

	images := tp.result.Images()
	require.Len(t, images, 1)
	blob, err := ResolveObjectURL(images[0])
	require.NoError(t, err)
	assert.Equal(t, pngBytes, blob.Data)
	assert.Equal(t, "image/png", blob.ContentType)
	assert.Empty(t, tp.result.Text())
}

func TestDispatchRequestFailed(t *testing.T) {
	tp := newTestPage()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, tp.loading.Visible())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"invalid style"}`))
	}))
	defer srv.Close()

	err := newDispatcher(t, srv).Dispatch(context.Background(), tp.page("a cat", "watercolor"))

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.Status)
	assert.Equal(t, "invalid style", reqErr.Detail)
	assert.Equal(t, "Error: invalid style", tp.result.Text())
	assert.Empty(t, tp.result.Images())
	assert.False(t, tp.loading.Visible())
}

func TestDispatchValidationErrorDetail(t *testing.T) {
	tp := newTestPage()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail": [{"loc": ["body", "style"], "msg": "field required"}]}`))
	}))
	defer srv.Close()

	err := newDispatcher(t, srv).Dispatch(context.Background(), tp.page("a cat", ""))

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnprocessableEntity, reqErr.Status)
	want := `Error: [{"loc":["body","style"],"msg":"field required"}]`
	assert.Equal(t, want, tp.result.Text())
	assert.False(t, tp.loading.Visible())
}

func TestErrorBodyText(t *testing.T) {
	for _, tt := range []struct {
		body, want string
	}{
		{`{"detail":"invalid style"}`, "invalid style"},
		{`{"detail":{"reason":"quota"}}`, `{"reason":"quota"}`},
		{`{"detail":null}`, ""},
		{`{}`, ""},
	} {
		var b ErrorBody
		require.NoError(t, json.Unmarshal([]byte(tt.body), &b))
		assert.Equal(t, tt.want, b.Text(), tt.body)
	}
}

func TestDispatchEmptyFields(t *testing.T) {
	tp := newTestPage()
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	require.NoError(t, newDispatcher(t, srv).Dispatch(context.Background(), tp.page("", "")))
	assert.Equal(t, map[string]any{"prompt": "", "style": ""}, raw)
	assert.Len(t, tp.result.Images(), 1)
}

func TestDispatchNetworkFailure(t *testing.T) {
	tp := newTestPage()
	srv := httptest.NewServer(http.NotFoundHandler())
	d := newDispatcher(t, srv)
	srv.Close()

	err := d.Dispatch(context.Background(), tp.page("a cat", "murales"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBusy)
	assert.False(t, tp.loading.Visible())
	assert.Empty(t, tp.result.Images())
	assert.Empty(t, tp.result.Text())
	assert.Equal(t, Idle, d.State())
}

func TestDispatchMalformedErrorBody(t *testing.T) {
	tp := newTestPage()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := newDispatcher(t, srv).Dispatch(context.Background(), tp.page("a cat", "murales"))
	assert.ErrorContains(t, err, "decoding error response with status 502")
	assert.Empty(t, tp.result.Text())
	assert.False(t, tp.loading.Visible())
}

func TestDispatchBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	d := newDispatcher(t, srv)
	first := newTestPage()
	done := make(chan error, 1)
	go func() {
		done <- d.Dispatch(context.Background(), first.page("a cat", "murales"))
	}()

	<-started
	assert.Equal(t, Pending, d.State())

	second := newTestPage()
	second.result.SetError("untouched")
	err := d.Dispatch(context.Background(), second.page("a dog", "murales"))
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, "untouched", second.result.Text())
	assert.False(t, second.loading.Visible())

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, first.result.Images(), 1)
	assert.Equal(t, Idle, d.State())
}

func TestNewResolvesEndpoint(t *testing.T) {
	d, err := New(nil, "http://localhost:8000/app/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/generate_image/", d.Endpoint())

	_, err = New(nil, "://bad")
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending", Pending.String())
}
