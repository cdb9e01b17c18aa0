// Package dispatch sends a prompt and style to the generation endpoint and
// renders the outcome into page handles supplied by the caller.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/dmorgan81/barroco/internal/log"
	"github.com/samber/lo"
)

const Endpoint = "/generate_image/"

// ErrBusy is returned when Dispatch is called while a previous call on the
// same Dispatcher is still pending.
var ErrBusy = errors.New("a generation request is already pending")

type Request struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
}

// ErrorBody is the JSON body of a failed request. Detail is usually a string
// but validation failures carry a list of objects.
type ErrorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// Text returns Detail as a string, or its compact JSON text when it is not one.
func (b ErrorBody) Text() string {
	var s string
	if err := json.Unmarshal(b.Detail, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, b.Detail); err != nil {
		return string(b.Detail)
	}
	return buf.String()
}

// RequestError is the outcome of a non-2xx response. Its message is the text
// rendered into the result region.
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	return "Error: " + e.Detail
}

type Field interface {
	Value() string
}

type Indicator interface {
	Show()
	Hide()
}

type Region interface {
	Clear()
	AppendImage(src string)
	SetError(text string)
}

type Page struct {
	Prompt  Field
	Style   Field
	Loading Indicator
	Result  Region
}

type State int32

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	return lo.Ternary(s == Pending, "pending", "idle")
}

type Dispatcher struct {
	client   *http.Client
	endpoint string
	state    atomic.Int32
}

// New returns a Dispatcher posting to the generation endpoint of the server
// at baseURL. A nil client means http.DefaultClient.
func New(client *http.Client, baseURL string) (*Dispatcher, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	return &Dispatcher{
		client:   lo.Ternary(client != nil, client, http.DefaultClient),
		endpoint: base.ResolveReference(&url.URL{Path: Endpoint}).String(),
	}, nil
}

func (d *Dispatcher) Endpoint() string {
	return d.endpoint
}

func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Dispatch runs one request/response/render cycle. Exactly one of
// page.Result.AppendImage or page.Result.SetError is called when the server
// answers, and page.Loading is hidden before Dispatch returns.
func (d *Dispatcher) Dispatch(ctx context.Context, page Page) error {
	if !d.state.CompareAndSwap(int32(Idle), int32(Pending)) {
		return ErrBusy
	}
	defer d.state.Store(int32(Idle))

	req := Request{Prompt: page.Prompt.Value(), Style: page.Style.Value()}
	log := log.FromContextOrDiscard(ctx).WithGroup("dispatch").With("endpoint", d.endpoint)

	page.Result.Clear()
	page.Loading.Show()
	defer page.Loading.Hide()

	log.Info("requesting image", "style", req.Style)
	resp, err := d.post(ctx, req)
	if err != nil {
		return fmt.Errorf("posting to %s: %w", d.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}
		blob := Blob{Data: data, ContentType: resp.Header.Get("Content-Type")}
		log.Info("received image", "bytes", len(data), "content-type", blob.ContentType)
		page.Result.AppendImage(ObjectURL(blob))
		return nil
	}

	var body ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding error response with status %d: %w", resp.StatusCode, err)
	}
	reqErr := &RequestError{Status: resp.StatusCode, Detail: body.Text()}
	log.Warn("generation failed", "status", resp.StatusCode, "detail", reqErr.Detail)
	page.Result.SetError(reqErr.Error())
	return reqErr
}

func (d *Dispatcher) post(ctx context.Context, r Request) (*http.Response, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return d.client.Do(req)
}
