package ports

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/communityboard/board-client/internal/core/domain"
)

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request is an outbound call to the remote board API.
type Request struct {
	Method string
	Path   string
	Body   any
	Header http.Header
}

// Response is a fully read response from the remote board API.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// Err returns nil for 2xx responses and the translated failure otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	var p domain.FailurePayload
	_ = json.Unmarshal(r.Body, &p)
	return domain.TranslateFailure(r.StatusCode, p)
}

// Requester issues requests against the remote board API with the current
// credential attached.
type Requester interface {
	Do(ctx context.Context, req Request) (*Response, error)
}
