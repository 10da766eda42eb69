package ingestion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"equity-events-lab/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func TestFeedClient_Connect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer conn.Close()

		// Keep connection open
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	ctx := context.Background()
	client, err := NewFeedClient(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("NewFeedClient: %v", err)
	}
	defer client.Close()

	if client.closed.Load() {
		t.Error("client should not be closed")
	}
}

func TestFeedClient_Subscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer c.Close()

		// Read subscribe request
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}

		var req feedRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}

		if req.Method != "recordsSubscribe" {
			t.Errorf("expected recordsSubscribe, got %s", req.Method)
		}

		// Send subscription confirmation
		resp := feedSubscribeResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  12345,
		}
		if err := c.WriteJSON(resp); err != nil {
			t.Errorf("write response: %v", err)
			return
		}

		// Send a record notification
		time.Sleep(50 * time.Millisecond)
		knowledge := domain.MustParseDate("2014-01-05")
		ex := domain.MustParseDate("2014-01-15")
		notif := feedNotification{
			JSONRPC: "2.0",
			Method:  "recordsNotification",
			Params: &feedNotificationParams{
				Subscription: 12345,
				Result: feedNotificationResult{
					Record: wireRecord{
						Dataset:       "cash_dividends",
						AssetID:       "EQ-0000",
						KnowledgeDate: &knowledge,
						EventDates:    map[string]*domain.Date{"ex_date": &ex, "pay_date": nil},
						Payload:       map[string]float64{"cash_amount": 12.5},
					},
				},
			},
		}
		if err := c.WriteJSON(notif); err != nil {
			t.Errorf("write notification: %v", err)
			return
		}

		// Keep connection open
		for {
			_, _, err := c.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	ctx := context.Background()
	client, err := NewFeedClient(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("NewFeedClient: %v", err)
	}
	defer client.Close()

	ch, err := client.Subscribe(ctx, "cash_dividends")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// Wait for notification
	select {
	case rec := <-ch:
		if rec.Dataset != "cash_dividends" {
			t.Errorf("expected cash_dividends, got %s", rec.Dataset)
		}
		if rec.AssetID != "EQ-0000" {
			t.Errorf("expected EQ-0000, got %s", rec.AssetID)
		}
		if rec.KnowledgeDate != domain.MustParseDate("2014-01-05") {
			t.Errorf("unexpected knowledge date %s", rec.KnowledgeDate)
		}
		if rec.EventDates["ex_date"] == nil || *rec.EventDates["ex_date"] != domain.MustParseDate("2014-01-15") {
			t.Error("ex_date lost in transit")
		}
		if payDate, declared := rec.EventDates["pay_date"]; !declared || payDate != nil {
			t.Error("nil pay_date should survive as declared-but-unknown")
		}
		if rec.Payload["cash_amount"] != 12.5 {
			t.Errorf("expected amount 12.5, got %v", rec.Payload["cash_amount"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for record notification")
	}
}

func TestFeedClient_MalformedRecordDropped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade: %v", err)
		}
		defer c.Close()

		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var req feedRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			return
		}
		c.WriteJSON(feedSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: 7})

		time.Sleep(50 * time.Millisecond)
		// Record with no asset_id, then a valid one
		c.WriteJSON(feedNotification{
			JSONRPC: "2.0",
			Method:  "recordsNotification",
			Params: &feedNotificationParams{
				Subscription: 7,
				Result:       feedNotificationResult{Record: wireRecord{Dataset: "cash_dividends"}},
			},
		})
		c.WriteJSON(feedNotification{
			JSONRPC: "2.0",
			Method:  "recordsNotification",
			Params: &feedNotificationParams{
				Subscription: 7,
				Result:       feedNotificationResult{Record: wireRecord{Dataset: "cash_dividends", AssetID: "EQ-0001"}},
			},
		})

		for {
			_, _, err := c.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	ctx := context.Background()
	client, err := NewFeedClient(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("NewFeedClient: %v", err)
	}
	defer client.Close()

	ch, err := client.Subscribe(ctx, "cash_dividends")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	select {
	case rec := <-ch:
		// The malformed record must have been skipped
		if rec.AssetID != "EQ-0001" {
			t.Errorf("expected EQ-0001, got %q", rec.AssetID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for record notification")
	}
}

func TestFeedClient_CloseIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	client, err := NewFeedClient(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewFeedClient: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if _, err := client.Subscribe(context.Background(), "cash_dividends"); err == nil {
		t.Error("Subscribe after Close should fail")
	}
}
