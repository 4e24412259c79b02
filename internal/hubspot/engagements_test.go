package hubspot

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const samplePage = `{
  "results": [
    {"engagement": {"id": 29090716, "portalId": 62515, "active": true, "createdAt": 1444223400781,
      "lastUpdated": 1444223400781, "ownerId": 70, "type": "NOTE", "timestamp": 1444223400781},
     "associations": {"contactIds": [247]},
     "metadata": {"body": "note body"}},
    {"engagement": {"id": 29090717, "type": "CALL", "uid": "u-1", "source": "CRM_UI"}}
  ],
  "hasMore": true,
  "offset": 29090717
}`

func TestDecodePage(t *testing.T) {
	t.Parallel()

	p, err := DecodePage(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("DecodePage: %v", err)
	}
	if !p.HasMore || p.Count != 2 || len(p.Engagements) != 2 || p.Offset != 29090717 {
		t.Fatalf("page = %+v", p)
	}

	e := p.Engagements[0]
	if id, ok := e.ID(); !ok || id != 29090716 {
		t.Fatalf("ID() = %d, %v", id, ok)
	}
	if v, ok := e["createdAt"].(int64); !ok || v != 1444223400781 {
		t.Fatalf("createdAt = %#v; want int64", e["createdAt"])
	}
	if v, ok := e["active"].(bool); !ok || !v {
		t.Fatalf("active = %#v", e["active"])
	}
	if _, ok := e["metadata"]; ok {
		t.Fatalf("only the engagement object should be extracted")
	}
	if p.Engagements[1]["source"] != "CRM_UI" {
		t.Fatalf("engagement 1 = %v", p.Engagements[1])
	}
}

func TestDecodePage_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"not json", `<html>`, "body"},
		{"missing results", `{"hasMore": false}`, "results"},
		{"missing hasMore", `{"results": []}`, "hasMore"},
		{"missing engagement", `{"results": [{"engagement": {"id": 1}}, {"metadata": {}}], "hasMore": false}`, "results[1].engagement"},
		{"bad offset", `{"results": [], "hasMore": false, "offset": 1.5}`, "offset"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodePage(strings.NewReader(tc.body))
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("err = %v; want *DecodeError", err)
			}
			if de.Field != tc.field {
				t.Fatalf("field = %q; want %q", de.Field, tc.field)
			}
		})
	}
}

func TestDecodePage_EmptyLastPage(t *testing.T) {
	t.Parallel()

	p, err := DecodePage(strings.NewReader(`{"results": [], "hasMore": false}`))
	if err != nil {
		t.Fatalf("DecodePage: %v", err)
	}
	if p.HasMore || p.Count != 0 {
		t.Fatalf("page = %+v", p)
	}
}

func TestRecentEngagements(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != RecentEngagementsPath {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("offset") != "100" || r.URL.Query().Get("count") != "100" {
			t.Errorf("query = %v", r.URL.Query())
		}
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	p, err := c.RecentEngagements(context.Background(), 100, 100)
	if err != nil {
		t.Fatalf("RecentEngagements: %v", err)
	}
	if p.Count != 2 {
		t.Fatalf("count = %d", p.Count)
	}
}

func TestRecentEngagements_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","message":"The API key provided is invalid."}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.RecentEngagements(context.Background(), 0, 100)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v; want *StatusError", err)
	}
	if se.StatusCode != http.StatusUnauthorized || !strings.Contains(se.Body, "invalid") {
		t.Fatalf("StatusError = %+v", se)
	}
}
