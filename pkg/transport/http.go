package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/richard-senior/podds/internal/logger"
	"github.com/richard-senior/podds/pkg/protocol"
)

const (
	maxRequestBytes = 1 << 20
	shutdownTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HTTPServer exposes a RequestHandler over plain HTTP POSTs and a WebSocket
//
//	POST /rpc     one JSON-RPC request per body
//	GET  /ws      JSON-RPC requests and responses as text frames
//	GET  /healthz liveness
type HTTPServer struct {
	addr    string
	handler RequestHandler
	router  *mux.Router
}

// NewHTTPServer registers the JSON-RPC routes. More routes can be added through Router
func NewHTTPServer(addr string, handler RequestHandler) *HTTPServer {
	s := &HTTPServer{addr: addr, handler: handler, router: mux.NewRouter()}
	s.router.HandleFunc("/rpc", s.handleRPC).Methods(http.MethodPost)
	s.router.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	return s
}

// Router returns the underlying router
func (s *HTTPServer) Router() *mux.Router {
	return s.router
}

// ServeHTTP lets the server be mounted or tested directly
func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe runs until ctx is cancelled, then shuts down gracefully
func (s *HTTPServer) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP transport listening on", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, protocol.NewJsonRpcErrorResponse(protocol.ErrParse, err.Error(), nil, nil))
		return
	}
	req, err := protocol.ParseJsonRpcRequest(body)
	if err != nil {
		WriteJSON(w, http.StatusOK, protocol.ParseErrorResponse(err))
		return
	}
	resp := s.handler.HandleRequest(r.Context(), req)
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// handleWS answers requests on one connection in order until the client closes it
func (s *HTTPServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws: upgrade failed", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBytes)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws: unexpected close", err)
			}
			return
		}
		var resp *protocol.JsonRpcResponse
		req, err := protocol.ParseJsonRpcRequest(message)
		if err != nil {
			resp = protocol.ParseErrorResponse(err)
		} else {
			resp = s.handler.HandleRequest(r.Context(), req)
		}
		if resp == nil {
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			logger.Warn("ws: write failed", err)
			return
		}
	}
}

// WriteJSON writes v with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", err)
	}
}
