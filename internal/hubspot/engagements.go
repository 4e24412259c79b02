package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// RecentEngagementsPath is the endpoint listing engagements modified in the
// last 30 days, newest first.
const RecentEngagementsPath = "/engagements/v1/engagements/recent/modified"

// MaxPageSize is the largest count the endpoint accepts.
const MaxPageSize = 100

// Engagement is one engagement object exactly as the API returned it. JSON
// numbers are normalised to int64 (or float64 when not integral).
type Engagement map[string]any

// ID returns the engagement identifier.
func (e Engagement) ID() (int64, bool) {
	switch v := e["id"].(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), v == float64(int64(v))
	}
	return 0, false
}

// Page is one decoded response of the recent engagements endpoint.
type Page struct {
	Engagements []Engagement
	HasMore     bool
	// Offset is the API's own continuation offset; informational only.
	Offset int64
	// Count is the number of engagements returned.
	Count int
}

// DecodeError reports a response body that does not have the expected shape.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hubspot: decode %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("hubspot: decode: missing field %q", e.Field)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusError is returned by RecentEngagements for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hubspot: unexpected status %d: %s", e.StatusCode, e.Body)
}

type rawPage struct {
	Results *[]rawResult `json:"results"`
	HasMore *bool        `json:"hasMore"`
	Offset  json.Number  `json:"offset"`
}

type rawResult struct {
	Engagement map[string]any `json:"engagement"`
}

// DecodePage decodes a recent engagements response. It fails with a
// *DecodeError when results, hasMore, or any result's engagement object is
// missing.
func DecodePage(r io.Reader) (Page, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw rawPage
	if err := dec.Decode(&raw); err != nil {
		return Page{}, &DecodeError{Field: "body", Err: err}
	}
	if raw.Results == nil {
		return Page{}, &DecodeError{Field: "results"}
	}
	if raw.HasMore == nil {
		return Page{}, &DecodeError{Field: "hasMore"}
	}

	p := Page{
		Engagements: make([]Engagement, 0, len(*raw.Results)),
		HasMore:     *raw.HasMore,
	}
	if raw.Offset != "" {
		off, err := raw.Offset.Int64()
		if err != nil {
			return Page{}, &DecodeError{Field: "offset", Err: err}
		}
		p.Offset = off
	}
	for i, res := range *raw.Results {
		if res.Engagement == nil {
			return Page{}, &DecodeError{Field: "results[" + strconv.Itoa(i) + "].engagement"}
		}
		p.Engagements = append(p.Engagements, Engagement(normalize(res.Engagement).(map[string]any)))
	}
	p.Count = len(p.Engagements)
	return p, nil
}

// normalize converts json.Number values to int64 when integral and float64
// otherwise, recursing into nested objects and arrays.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, vv := range t {
			t[k] = normalize(vv)
		}
		return t
	case []any:
		for i, vv := range t {
			t[i] = normalize(vv)
		}
		return t
	}
	return v
}

// RecentEngagements fetches one page of recently modified engagements.
func (c *Client) RecentEngagements(ctx context.Context, offset, count int) (Page, error) {
	resp, err := c.Call(ctx, RecentEngagementsPath, map[string]any{
		"offset": offset,
		"count":  count,
	}, http.MethodGet)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Page{}, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}
	return DecodePage(resp.Body)
}
