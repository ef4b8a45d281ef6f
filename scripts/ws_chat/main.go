package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"html"
	"log"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/espachat/internal/proto"
)

const (
	controlTopic = "topic:"
	controlToken = "continuityToken:"
)

var (
	tags   = regexp.MustCompile(`<[^>]*>`)
	breaks = regexp.MustCompile(`(?i)<br\s*/?>`)
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	tokenFile := flag.String("token-file", ".espachat_token", "file that keeps the continuity token between runs (empty disables)")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	dialURL, err := withToken(*addr, loadToken(*tokenFile))
	if err != nil {
		return err
	}

	conn, _, err := websocket.Dial(ctx, dialURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("Connected to %s\n", *addr)
	fmt.Println("Type messages or /help and press Enter. /clean clears the screen. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn, *tokenFile)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func loadToken(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveToken(path, token string) {
	if path == "" {
		return
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		log.Printf("save token: %v", err)
	}
}

func withToken(addr, token string) (string, error) {
	if token == "" {
		return addr, nil
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse addr: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// plain renders a server HTML line for the terminal.
func plain(line string) string {
	line = breaks.ReplaceAllString(line, "\n")
	return html.UnescapeString(tags.ReplaceAllString(line, ""))
}

func readLoop(ctx context.Context, conn *websocket.Conn, tokenFile string) {
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch outbound.Type {
		case proto.OutboundTypeMessage:
			text := plain(outbound.HTML)
			if outbound.Code != "" {
				fmt.Printf("! %s (%s)\n", text, outbound.Code)
				continue
			}
			fmt.Println(text)
		case proto.OutboundTypeSystem:
			switch {
			case strings.HasPrefix(outbound.Data, controlTopic):
				fmt.Printf("== Thema: %s ==\n", strings.TrimPrefix(outbound.Data, controlTopic))
			case strings.HasPrefix(outbound.Data, controlToken):
				saveToken(tokenFile, strings.TrimPrefix(outbound.Data, controlToken))
			}
		case proto.OutboundTypeError:
			if outbound.Error != nil {
				fmt.Printf("error %s: %s\n", outbound.Error.Code, outbound.Error.Msg)
			}
		default:
			fmt.Printf("type=%s data=%s\n", outbound.Type, outbound.Data)
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if text == "/clean" {
				fmt.Print("\033[H\033[2J")
				continue
			}

			payload, err := json.Marshal(proto.MessageData{Text: text})
			if err != nil {
				log.Printf("marshal message: %v", err)
				return
			}
			if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeMessage, Data: payload}); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
