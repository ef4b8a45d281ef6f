package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/espachat/internal/config"
	"github.com/vovakirdan/espachat/internal/core"
)

type stubHub struct {
	info core.RoomInfo
	err  error
}

func (s *stubHub) Connect(*core.Client, string) {}
func (s *stubHub) Submit(*core.Client, string)  {}
func (s *stubHub) Disconnect(*core.Client)      {}
func (s *stubHub) RoomInfo(context.Context) (core.RoomInfo, error) {
	return s.info, s.err
}

func TestHealthEndpoint(t *testing.T) {
	disabledLogger := zerolog.New(nil)
	cfg := config.Default()
	server := NewServer(&stubHub{}, &cfg, &disabledLogger)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}
	if resp.Body.String() != "ok" {
		t.Fatalf("unexpected body: %q", resp.Body.String())
	}
}

func TestGetRoom(t *testing.T) {
	disabledLogger := zerolog.New(nil)
	cfg := config.Default()
	hub := &stubHub{info: core.RoomInfo{Title: "Espas Chat", Topic: "Willkommen im Chat!", Online: 3}}
	server := NewServer(hub, &cfg, &disabledLogger)

	req := httptest.NewRequest(http.MethodGet, "/api/room", nil)
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.Code)
	}

	var room RoomResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &room); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if room.Title != "Espas Chat" || room.Topic != "Willkommen im Chat!" || room.Online != 3 {
		t.Fatalf("unexpected room: %+v", room)
	}
}

func TestGetRoomHubStopped(t *testing.T) {
	disabledLogger := zerolog.New(nil)
	cfg := config.Default()
	server := NewServer(&stubHub{err: core.ErrHubStopped}, &cfg, &disabledLogger)

	req := httptest.NewRequest(http.MethodGet, "/api/room", nil)
	resp := httptest.NewRecorder()
	server.Handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", resp.Code)
	}
}
