package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/akrylysov/pogreb"
	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
)

// ErrTransport covers network failures and non-success HTTP statuses,
// after the bounded retries are exhausted.
var ErrTransport = errors.New("transport error")

const (
	userAgent      = "sdauwidhwa/NMCL (nodejs.minecraft.launcher@gmail.com)"
	defaultRetries = 2
)

// Client issues outbound HTTP requests through the shared Queue with
// bounded retries. Cache, when set, stores response bodies for URLs
// whose content is immutable (hash-addressed version manifests), so
// repeated resolutions skip the network entirely.
type Client struct {
	HTTP  *http.Client
	Queue *Queue
	Cache *pogreb.DB

	// Retries is the number of automatic retries per request.
	// Zero means the default of 2; negative disables retries.
	Retries int
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) retries() uint64 {
	switch {
	case c.Retries < 0:
		return 0
	case c.Retries == 0:
		return defaultRetries
	}
	return uint64(c.Retries)
}

// Stream fetches url and copies the response body to w, all inside a
// queue slot. Retries apply to the request and status check only; a
// copy interrupted mid-body is not restarted.
func (c *Client) Stream(ctx context.Context, rawurl string, w io.Writer) error {
	return c.Queue.Do(ctx, func() error {
		resp, err := c.request(ctx, "GET", rawurl, "", nil)
		if err != nil {
			return err
		}
		r := resp.Body
		defer func() {
			if cerr := r.Close(); cerr != nil {
				log.Debug("close body", "url", rawurl, "err", cerr)
			}
		}()
		if _, err := io.Copy(w, r); err != nil {
			return fmt.Errorf("fetch %q: %w", rawurl, err)
		}
		return nil
	})
}

// Get fetches url and returns the whole body.
func (c *Client) Get(ctx context.Context, rawurl string) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Stream(ctx, rawurl, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetJSON fetches url and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, rawurl string, v interface{}) error {
	b, err := c.Get(ctx, rawurl)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %q: %w", rawurl, err)
	}
	return nil
}

// GetJSONCached is GetJSON backed by the response cache. Only use it
// for URLs whose body never changes.
func (c *Client) GetJSONCached(ctx context.Context, rawurl string, v interface{}) error {
	if c.Cache != nil {
		b, err := c.Cache.Get([]byte(rawurl))
		if err != nil {
			log.Debug("cache get", "url", rawurl, "err", err)
		}
		if b != nil {
			if err := json.Unmarshal(b, v); err == nil {
				return nil
			}
			// Corrupt entry, refetch.
		}
	}
	b, err := c.Get(ctx, rawurl)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %q: %w", rawurl, err)
	}
	if c.Cache != nil {
		if err := c.Cache.Put([]byte(rawurl), b); err != nil {
			log.Debug("cache put", "url", rawurl, "err", err)
		}
	}
	return nil
}

// PostForm posts a urlencoded body through the queue and returns the
// response body.
func (c *Client) PostForm(ctx context.Context, rawurl, form string) ([]byte, error) {
	return c.roundTrip(ctx, "POST", rawurl, "application/x-www-form-urlencoded", []byte(form))
}

// PostJSON posts a JSON body through the queue and returns the
// response body.
func (c *Client) PostJSON(ctx context.Context, rawurl string, body interface{}) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return c.roundTrip(ctx, "POST", rawurl, "application/json", b)
}

// GetAuthed fetches url with a bearer token.
func (c *Client) GetAuthed(ctx context.Context, rawurl, token string) ([]byte, error) {
	var out []byte
	err := c.Queue.Do(ctx, func() error {
		resp, err := c.request(ctx, "GET", rawurl, "", nil, "Authorization", "Bearer "+token)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		out, err = io.ReadAll(resp.Body)
		return err
	})
	return out, err
}

func (c *Client) roundTrip(ctx context.Context, method, rawurl, contentType string, body []byte) ([]byte, error) {
	var out []byte
	err := c.Queue.Do(ctx, func() error {
		resp, err := c.request(ctx, method, rawurl, contentType, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		out, err = io.ReadAll(resp.Body)
		return err
	})
	return out, err
}

// request performs one HTTP round trip with bounded retries. The body
// is replayed on every attempt. On success the caller owns resp.Body.
func (c *Client) request(ctx context.Context, method, rawurl, contentType string, body []byte, headers ...string) (*http.Response, error) {
	op := func() (*http.Response, error) {
		var br io.Reader
		if body != nil {
			br = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawurl, br)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		resp, err := c.httpClient().Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if cerr := resp.Body.Close(); cerr != nil {
				log.Debug("close body", "url", rawurl, "err", cerr)
			}
			return nil, fmt.Errorf("%w: %s: http status %d", ErrTransport, rawurl, resp.StatusCode)
		}
		return resp, nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries()), ctx)
	return backoff.RetryWithData(op, bo)
}
