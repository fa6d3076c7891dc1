package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Sangwon91/prior/protocol"
)

const clientBufferSize = 64

// Client connects to a bridge Server and exchanges chat messages with it.
// A background loop decodes inbound frames into an internal queue drained
// by Receive; invalid frames are discarded.
type Client struct {
	url string

	mutex      sync.Mutex
	conn       *websocket.Conn
	inbox      *MessageChannel[protocol.ChatMessage]
	cancelRead context.CancelFunc
}

// NewClient creates a client for the given WebSocket URL. No connection is
// made until Connect.
func NewClient(url string) *Client {
	return &Client{url: url}
}

// Connect dials the server and starts the receive loop. Connecting an
// already-connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	inbox := NewMessageChannel[protocol.ChatMessage](readCtx, clientBufferSize)
	c.conn = conn
	c.inbox = inbox
	c.cancelRead = cancel

	go readLoop(readCtx, cancel, conn, inbox)
	return nil
}

func readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, inbox *MessageChannel[protocol.ChatMessage]) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			cancel()
			return
		}

		message, err := protocol.DecodeChatMessage(data)
		if err != nil {
			continue
		}

		if err := inbox.Send(ctx, message); err != nil {
			return
		}
	}
}

// Send writes a chat message to the server.
func (c *Client) Send(ctx context.Context, message protocol.ChatMessage) error {
	data, err := message.Encode()
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.conn == nil {
		return fmt.Errorf("client not connected")
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Receive blocks until the next chat message arrives from the server.
func (c *Client) Receive(ctx context.Context) (protocol.ChatMessage, error) {
	c.mutex.Lock()
	inbox := c.inbox
	c.mutex.Unlock()

	if inbox == nil {
		return protocol.ChatMessage{}, fmt.Errorf("client not connected")
	}
	return inbox.Receive(ctx)
}

// Close stops the receive loop and closes the connection.
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.conn == nil {
		return nil
	}

	c.cancelRead()
	err := c.conn.Close()
	c.conn = nil
	c.inbox = nil
	return err
}
