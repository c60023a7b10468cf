//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nholik/delegate-sentinel/internal/chain"
	"github.com/nholik/delegate-sentinel/internal/config"
	"github.com/nholik/delegate-sentinel/internal/delegates"
	"github.com/nholik/delegate-sentinel/internal/dispatch"
	"github.com/nholik/delegate-sentinel/internal/event"
	"github.com/nholik/delegate-sentinel/internal/logging"
	"github.com/nholik/delegate-sentinel/internal/message"
	"github.com/nholik/delegate-sentinel/internal/notify"
	"github.com/nholik/delegate-sentinel/internal/subscription"
	"github.com/nholik/delegate-sentinel/internal/transform"
)

// TestIntegrationNodeAPI verifies delegate and wallet lookups against a live
// node and a round dispatch to a local webhook receiver.
//
// Prerequisites:
//   - a node public API reachable at TEST_NODE_API_URL (default http://localhost:4003)
//
// Run with: go test -tags=integration -v ./test/integration/...
func TestIntegrationNodeAPI(t *testing.T) {
	nodeURL := getEnv("TEST_NODE_API_URL", "http://localhost:4003")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := checkEndpoint(ctx, nodeURL+"/api/delegates?limit=1"); err != nil {
		t.Skipf("node api not reachable: %v", err)
	}

	client, err := chain.NewAPIClient(nodeURL, 51, 10*time.Second)
	if err != nil {
		t.Fatalf("create api client: %v", err)
	}

	var active []string
	t.Run("ActiveDelegates", func(t *testing.T) {
		active, err = client.ActiveDelegates(context.Background())
		if err != nil {
			t.Fatalf("active delegates: %v", err)
		}
		if len(active) == 0 {
			t.Fatal("expected at least one active delegate")
		}
		t.Logf("node reports %d active delegates", len(active))
	})

	t.Run("DispatchRound", func(t *testing.T) {
		var (
			mu     sync.Mutex
			bodies [][]byte
		)
		receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)
			mu.Lock()
			bodies = append(bodies, data)
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}))
		defer receiver.Close()

		logger := logging.NewWithLevel("debug")
		engine, err := delegates.New(context.Background(), client, logger)
		if err != nil {
			t.Fatalf("create delegate engine: %v", err)
		}
		layer, err := transform.New(client, chain.StaticHost("integration"))
		if err != nil {
			t.Fatalf("create transform layer: %v", err)
		}

		table := subscription.Build(logger, []config.Webhook{
			{Endpoint: receiver.URL, Events: []string{"round.created"}},
		})
		executor, err := dispatch.New(logger, table, dispatch.NewHandlers(layer, engine.Transform),
			message.NewLibrary(), notify.NewHTTPPoster(logger), "")
		if err != nil {
			t.Fatalf("create executor: %v", err)
		}

		data, _ := json.Marshal(active)
		result := executor.Dispatch(context.Background(), event.Occurrence{
			Name: event.RoundCreated,
			Data: data,
		})
		if result.Sent != 1 {
			t.Fatalf("expected one delivered notification, got %+v", result)
		}

		mu.Lock()
		defer mu.Unlock()
		if len(bodies) != 1 {
			t.Fatalf("expected one webhook body, got %d", len(bodies))
		}
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func checkEndpoint(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return nil
}
