package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/chatgate/internal/transport/ws"
)

// ChatClient is a line-oriented WebSocket chat client.
type ChatClient struct {
	conn    *websocket.Conn
	seq     atomic.Int64
	Session ws.HelloAckMessage
}

// DialChat connects to the gateway WebSocket endpoint.
func DialChat(addr string) (*ChatClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &ChatClient{conn: conn}, nil
}

// Close closes the connection.
func (c *ChatClient) Close() error {
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// Hello opens a session with a launch token and waits for hello_ack.
func (c *ChatClient) Hello(launchToken string) error {
	msg := ws.HelloMessage{
		BaseMessage: ws.BaseMessage{Type: ws.TypeHello, Ts: time.Now().UnixMilli()},
		Token:       launchToken,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("write hello: %w", err)
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read hello_ack: %w", err)
	}

	var base ws.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return fmt.Errorf("unmarshal hello_ack: %w", err)
	}
	switch base.Type {
	case ws.TypeHelloAck:
		return json.Unmarshal(data, &c.Session)
	case ws.TypeError:
		var errMsg ws.ErrorMessage
		_ = json.Unmarshal(data, &errMsg)
		return fmt.Errorf("hello failed: %s - %s", errMsg.Code, errMsg.Message)
	default:
		return fmt.Errorf("expected hello_ack, got: %s", base.Type)
	}
}

// Ask sends one message and waits for its reply.
func (c *ChatClient) Ask(content string) (string, error) {
	requestID := fmt.Sprintf("req_%d", c.seq.Add(1))
	msg := ws.ChatMessage{
		BaseMessage: ws.BaseMessage{Type: ws.TypeChat, Ts: time.Now().UnixMilli(), RequestID: requestID},
		Content:     content,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return "", fmt.Errorf("write chat: %w", err)
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("read reply: %w", err)
		}
		var base ws.BaseMessage
		if err := json.Unmarshal(data, &base); err != nil {
			return "", fmt.Errorf("unmarshal reply: %w", err)
		}
		if base.RequestID != requestID {
			continue
		}
		switch base.Type {
		case ws.TypeReply:
			var reply ws.ReplyMessage
			if err := json.Unmarshal(data, &reply); err != nil {
				return "", err
			}
			return reply.Text, nil
		case ws.TypeError:
			var errMsg ws.ErrorMessage
			_ = json.Unmarshal(data, &errMsg)
			return "", fmt.Errorf("%s: %s", errMsg.Code, errMsg.Message)
		}
	}
}

// Loop reads lines from in until EOF or /quit and prints each reply to out.
func (c *ChatClient) Loop(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" {
			fmt.Fprintln(out, "Bye!")
			return nil
		}

		text, err := c.Ask(input)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, text)
	}
}

func newChatCmd() *cobra.Command {
	var addr, launchToken string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat over the WebSocket endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Connecting to %s...\n", addr)

			client, err := DialChat(addr)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Hello(launchToken); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (thread %s)\n", client.Session.Title, client.Session.ThreadID)
			fmt.Fprintln(out, "Type a message and press Enter to send. /quit to exit.")

			return client.Loop(cmd.InOrStdin(), out)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "ws://localhost:8080/ws", "WebSocket server address")
	cmd.Flags().StringVar(&launchToken, "token", "", "launch token from /api/issue or 'chatgate token issue'")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}
