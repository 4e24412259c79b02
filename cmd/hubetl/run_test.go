package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/TheF1rstPancake/hubspot/internal/config"
	"github.com/TheF1rstPancake/hubspot/internal/hubspot"
)

// day 2019-05-01 and 2019-05-02 at noon UTC, in epoch milliseconds.
const (
	may1 = int64(1556712000000)
	may2 = may1 + int64(24*time.Hour/time.Millisecond)
)

// fakeHubSpot serves pages keyed by offset.
func fakeHubSpot(t *testing.T, pages map[string]string) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu      sync.Mutex
		offsets []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != hubspot.RecentEngagementsPath {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("hapikey") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		off := r.URL.Query().Get("offset")
		mu.Lock()
		offsets = append(offsets, off)
		mu.Unlock()
		body, ok := pages[off]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), offsets...)
	}
}

func engagement(id int64, typ string, createdAt int64) string {
	return fmt.Sprintf(`{"engagement":{"id":%d,"portalId":62515,"active":true,"type":%q,"createdAt":%d,"lastUpdated":%d}}`,
		id, typ, createdAt, createdAt)
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.HubSpot.BaseURL = baseURL
	cfg.HubSpot.APIKey = "test-key"
	cfg.HubSpot.Timeout = 5 * time.Second
	cfg.DB.Kind = "sqlite"
	cfg.DB.Path = filepath.Join(t.TempDir(), "hubspot.db")
	return &cfg
}

func TestRun_EndToEnd(t *testing.T) {
	srv, offsets := fakeHubSpot(t, map[string]string{
		"0": `{"results":[` + engagement(1, "CALL", may1) + `,` + engagement(2, "CALL", may1) + `],"hasMore":true,"offset":2}`,
		"100": `{"results":[` + engagement(3, "CALL", may2) + `,` + engagement(4, "NOTE", may1) +
			`,{"engagement":{"id":5,"type":"EMAIL","createdAt":` + fmt.Sprint(may2) + `,"uid":"abc","source":"CRM_UI"}}],"hasMore":false,"offset":5}`,
	})
	cfg := testConfig(t, srv.URL)

	var logs, out bytes.Buffer
	log := zerolog.New(&logs)

	if err := run(context.Background(), cfg, log, &out); err != nil {
		t.Fatalf("run: %v\nlogs: %s", err, logs.String())
	}

	if got := strings.Join(offsets(), ","); got != "0,100" {
		t.Fatalf("offsets = %s; want 0,100", got)
	}
	want := strings.Join([]string{
		"('CALL', '2019-05-01', 2)",
		"('CALL', '2019-05-02', 1)",
		"('EMAIL', '2019-05-02', 1)",
		"('NOTE', '2019-05-01', 1)",
	}, "\n") + "\n"
	if out.String() != want {
		t.Fatalf("report:\n%s\nwant:\n%s", out.String(), want)
	}
	if !strings.Contains(logs.String(), "Creating table: engagements") {
		t.Fatalf("missing table log: %s", logs.String())
	}
	if got := strings.Count(logs.String(), "Writing data"); got != 2 {
		t.Fatalf(`"Writing data" logged %d times; want 2`, got)
	}
}

// TestRun_Twice checks the table is recreated so a second run starts empty
// and does not hit primary key conflicts from the first.
func TestRun_Twice(t *testing.T) {
	srv, _ := fakeHubSpot(t, map[string]string{
		"0": `{"results":[` + engagement(1, "CALL", may1) + `],"hasMore":false}`,
	})
	cfg := testConfig(t, srv.URL)

	for i := 0; i < 2; i++ {
		var out bytes.Buffer
		if err := run(context.Background(), cfg, zerolog.Nop(), &out); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if out.String() != "('CALL', '2019-05-01', 1)\n" {
			t.Fatalf("run %d report = %q", i, out.String())
		}
	}
}

func TestRun_DuplicateAborts(t *testing.T) {
	srv, _ := fakeHubSpot(t, map[string]string{
		"0":   `{"results":[` + engagement(1, "CALL", may1) + `],"hasMore":true}`,
		"100": `{"results":[` + engagement(1, "CALL", may1) + `],"hasMore":false}`,
	})
	cfg := testConfig(t, srv.URL)

	var out bytes.Buffer
	err := run(context.Background(), cfg, zerolog.Nop(), &out)
	if err == nil {
		t.Fatalf("expected duplicate key failure")
	}
	if out.Len() != 0 {
		t.Fatalf("report should not run after a failed ingest, got %q", out.String())
	}
}

func TestRun_HTTPErrorAborts(t *testing.T) {
	srv, _ := fakeHubSpot(t, map[string]string{})
	cfg := testConfig(t, srv.URL)
	cfg.HubSpot.APIKey = "wrong"

	err := run(context.Background(), cfg, zerolog.Nop(), &bytes.Buffer{})
	var se *hubspot.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v; want 401 StatusError", err)
	}
}

func TestRun_DecodeErrorAborts(t *testing.T) {
	srv, _ := fakeHubSpot(t, map[string]string{
		"0": `{"results":[{"metadata":{}}],"hasMore":false}`,
	})
	cfg := testConfig(t, srv.URL)

	err := run(context.Background(), cfg, zerolog.Nop(), &bytes.Buffer{})
	var de *hubspot.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v; want DecodeError", err)
	}
}

func TestSetupMetrics(t *testing.T) {
	flush, err := setupMetrics(config.Metrics{Backend: "none", Job: "hubetl"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("none: %v", err)
	}
	flush()

	if _, err := setupMetrics(config.Metrics{Backend: "pushgateway", Job: "hubetl"}, zerolog.Nop()); err == nil {
		t.Fatalf("pushgateway without URL should fail")
	}
}
