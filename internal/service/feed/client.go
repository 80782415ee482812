package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	drepo "github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
)

// Client implements a MarketStream over the upstream WebSocket feed. The feed
// multiplexes daily bars, categorized news and corporate actions on one
// connection.
type Client struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new feed MarketStream.
func New(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("feed: connected")
	return nil
}

// Subscribe subscribes to bars, news and corporate actions for the
// configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("feed not connected")
	}
	for _, s := range c.symbols {
		for _, ch := range []string{"bars", "news", "actions"} {
			msg := map[string]string{"type": "subscribe", "channel": ch, "symbol": s}
			if err := c.conn.WriteJSON(msg); err != nil {
				return fmt.Errorf("subscribe %s/%s: %w", s, ch, err)
			}
		}
		log.Printf("feed: subscribed %s", s)
	}
	return nil
}

type feedFrame struct {
	Type     string                 `json:"type"`
	Symbol   string                 `json:"symbol"`
	T        int64                  `json:"t"` // ms
	Open     float64                `json:"o"`
	High     float64                `json:"h"`
	Low      float64                `json:"l"`
	Close    float64                `json:"c"`
	Volume   float64                `json:"v"`
	ID       string                 `json:"id"`
	Event    string                 `json:"event_type"`
	Headline string                 `json:"headline"`
	Payload  map[string]interface{} `json:"payload"`
	Kind     string                 `json:"kind"`
	Amount   float64                `json:"amount"`
}

// Read streams market updates and errors.
func (c *Client) Read(ctx context.Context) (<-chan *drepo.MarketUpdate, <-chan error) {
	updates := make(chan *drepo.MarketUpdate, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(updates)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("feed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("feed read: %w", err)
					return
				}
				var f feedFrame
				if err := json.Unmarshal(b, &f); err != nil {
					// ignore unknown frames
					continue
				}
				u := frameToUpdate(&f)
				if u == nil {
					continue
				}
				select {
				case updates <- u:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return updates, errs
}

func frameToUpdate(f *feedFrame) *drepo.MarketUpdate {
	ts := time.Unix(f.T/1000, 0).UTC()
	switch f.Type {
	case "bar":
		return &drepo.MarketUpdate{Bar: &models.Bar{
			Symbol:    f.Symbol,
			Timestamp: ts,
			Open:      f.Open,
			High:      f.High,
			Low:       f.Low,
			Close:     f.Close,
			Volume:    f.Volume,
		}}
	case "news":
		return &drepo.MarketUpdate{Event: &models.NewsEvent{
			ID:        f.ID,
			Symbol:    f.Symbol,
			Timestamp: ts,
			Type:      models.EventType(f.Event),
			Headline:  f.Headline,
			Payload:   f.Payload,
		}}
	case "action":
		return &drepo.MarketUpdate{Action: &models.CorporateAction{
			Symbol:    f.Symbol,
			Timestamp: ts,
			Kind:      f.Kind,
			Amount:    f.Amount,
		}}
	}
	return nil
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
