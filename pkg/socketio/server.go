package socketio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	socket "github.com/zishang520/socket.io/socket"

	jwtutil "github.com/mo-amir99/training-portal/internal/utils/jwt"
)

// Content events pushed to connected portals.
const (
	EventDayUnlocked      = "dayUnlocked"
	EventDayLocked        = "dayLocked"
	EventAllDaysUnlocked  = "allDaysUnlocked"
	EventRecordingAdded   = "recordingAdded"
	EventRecordingRemoved = "recordingRemoved"
	EventProgressUpdated  = "progressUpdated"
)

const adminsRoom socket.Room = "admins"

// Authenticator resolves a session token into claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*jwtutil.Claims, error)
}

// Options tunes the realtime server.
type Options struct {
	Path              string
	HeartbeatInterval time.Duration
	// RequireAuth rejects connections without a valid session token.
	RequireAuth bool
}

// Server wraps the Socket.IO server and fans content changes out to clients.
type Server struct {
	io     *socket.Server
	auth   Authenticator
	logger *slog.Logger
	opts   Options

	heartbeatStop chan struct{}
	heartbeatWG   sync.WaitGroup
	closeOnce     sync.Once

	connMutex   sync.RWMutex
	connections map[string]*socket.Socket
}

// NewServer creates a Socket.IO server. auth may be nil, in which case every
// connection is anonymous.
func NewServer(auth Authenticator, logger *slog.Logger, opts Options) (*Server, error) {
	if opts.Path == "" {
		opts.Path = "/socket.io"
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 30 * time.Second
	}
	if opts.RequireAuth && auth == nil {
		return nil, fmt.Errorf("socketio: RequireAuth needs an authenticator")
	}

	serverOpts := socket.DefaultServerOptions()
	serverOpts.SetPingTimeout(60 * time.Second)
	serverOpts.SetPingInterval(25 * time.Second)
	serverOpts.SetServeClient(false)
	serverOpts.SetPath(opts.Path)

	s := &Server{
		io:          socket.NewServer(nil, serverOpts),
		auth:        auth,
		logger:      logger,
		opts:        opts,
		connections: make(map[string]*socket.Socket),
	}

	s.setupEventHandlers()
	s.startHeartbeat()

	return s, nil
}

// GetHandler returns the HTTP handler for Socket.IO.
func (s *Server) GetHandler() http.Handler {
	return s.io.ServeHandler(nil)
}

// Close shuts down the Socket.IO server. It is safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		close(s.heartbeatStop)
		s.heartbeatWG.Wait()

		done := make(chan struct{})
		s.io.Close(func() {
			close(done)
		})
		<-done
	})
	return nil
}

// Broadcast emits an event to every connected client.
func (s *Server) Broadcast(event string, payload any) {
	if err := s.io.Local().Emit(event, payload); err != nil {
		s.logger.Warn("failed to broadcast event", slog.String("event", event), slog.String("error", err.Error()))
	}
}

// BroadcastAdmins emits an event to clients holding an admin session.
func (s *Server) BroadcastAdmins(event string, payload any) {
	if err := s.io.Local().To(adminsRoom).Emit(event, payload); err != nil {
		s.logger.Warn("failed to broadcast admin event", slog.String("event", event), slog.String("error", err.Error()))
	}
}

// EmitToUser emits an event to every connection of one user.
func (s *Server) EmitToUser(userID, event string, payload any) {
	if userID == "" {
		return
	}
	if err := s.io.Local().To(userRoom(userID)).Emit(event, payload); err != nil {
		s.logger.Warn("failed to emit user event", slog.String("event", event), slog.String("error", err.Error()))
	}
}

// ConnectionCount reports the number of live connections.
func (s *Server) ConnectionCount() int {
	s.connMutex.RLock()
	defer s.connMutex.RUnlock()
	return len(s.connections)
}

func (s *Server) setupEventHandlers() {
	s.io.Use(s.connectionMiddleware)
	s.io.On("connection", func(args ...any) {
		sock, ok := args[0].(*socket.Socket)
		if !ok {
			s.logger.Error("unexpected connection payload", slog.Any("payload", args))
			return
		}
		s.handleConnection(sock)
	})
}

func (s *Server) connectionMiddleware(sock *socket.Socket, next func(*socket.ExtendedError)) {
	token := s.extractToken(sock)
	if token == "" || s.auth == nil {
		if s.opts.RequireAuth {
			s.logger.Warn("socket connection rejected: missing token")
			next(socket.NewExtendedError("missing authentication token", map[string]any{"code": "MISSING_TOKEN"}))
			return
		}
		next(nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	claims, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		s.logger.Warn("socket connection rejected: invalid token", slog.String("error", err.Error()))
		next(socket.NewExtendedError("invalid token", map[string]any{"code": "INVALID_TOKEN"}))
		return
	}

	sock.SetData(claims)
	next(nil)
}

func (s *Server) handleConnection(sock *socket.Socket) {
	s.connMutex.Lock()
	s.connections[s.socketID(sock)] = sock
	s.connMutex.Unlock()

	confirm := map[string]any{
		"authenticated": false,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}

	if claims := claimsFromSocket(sock); claims != nil {
		confirm["authenticated"] = true
		confirm["role"] = claims.Role
		confirm["capabilities"] = claims.Capabilities
		if claims.UserID != nil {
			uid := claims.UserID.String()
			confirm["userId"] = uid
			sock.Join(userRoom(uid))
		}
		if claims.Role == "admin" {
			sock.Join(adminsRoom)
		}
	}

	s.logger.Debug("WebSocket connected",
		slog.String("connId", s.socketID(sock)),
		slog.Bool("authenticated", confirm["authenticated"].(bool)),
	)

	if err := sock.Emit("connectionConfirmed", confirm); err != nil {
		s.logger.Warn("failed to emit connection confirmation", slog.String("error", err.Error()))
	}

	sock.On("subscribeDay", func(args ...any) {
		day, ok := dayArg(args)
		if !ok {
			s.emitError(sock, "INVALID_INPUT", "day number is required")
			return
		}
		sock.Join(dayRoom(day))
	})

	sock.On("unsubscribeDay", func(args ...any) {
		if day, ok := dayArg(args); ok {
			sock.Leave(dayRoom(day))
		}
	})

	sock.On("disconnect", func(args ...any) {
		s.handleDisconnect(sock, stringArg(args))
	})
}

// EmitToDay emits an event to clients subscribed to one training day.
func (s *Server) EmitToDay(day int, event string, payload any) {
	if err := s.io.Local().To(dayRoom(day)).Emit(event, payload); err != nil {
		s.logger.Warn("failed to emit day event", slog.String("event", event), slog.String("error", err.Error()))
	}
}

func (s *Server) handleDisconnect(sock *socket.Socket, reason string) {
	s.connMutex.Lock()
	delete(s.connections, s.socketID(sock))
	s.connMutex.Unlock()

	s.logger.Debug("WebSocket disconnected",
		slog.String("connId", s.socketID(sock)),
		slog.String("reason", reason),
	)
}

func (s *Server) startHeartbeat() {
	s.heartbeatStop = make(chan struct{})
	s.heartbeatWG.Add(1)

	go func() {
		defer s.heartbeatWG.Done()
		ticker := time.NewTicker(s.opts.HeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sendHeartbeat()
			case <-s.heartbeatStop:
				return
			}
		}
	}()
}

func (s *Server) sendHeartbeat() {
	timestamp := time.Now().Unix()

	s.connMutex.RLock()
	defer s.connMutex.RUnlock()

	for id, sock := range s.connections {
		if err := sock.Emit("ping", timestamp); err != nil {
			s.logger.Debug("heartbeat emit failed", slog.String("connId", id), slog.String("error", err.Error()))
		}
	}
}

func (s *Server) emitError(sock *socket.Socket, code, message string) {
	if sock == nil {
		return
	}
	if err := sock.Emit("error", map[string]any{
		"code":    code,
		"message": message,
	}); err != nil {
		s.logger.Debug("failed to emit error", slog.String("error", err.Error()))
	}
}

func (s *Server) extractToken(sock *socket.Socket) string {
	if sock == nil {
		return ""
	}

	if conn := sock.Conn(); conn != nil {
		if ctx := conn.Request(); ctx != nil {
			if req := ctx.Request(); req != nil {
				if token := req.URL.Query().Get("token"); token != "" {
					return token
				}
				if token := bearer(req.Header.Get("Authorization")); token != "" {
					return token
				}
			}
		}
	}

	if hs := sock.Handshake(); hs != nil {
		if hs.Query != nil {
			if token, ok := hs.Query.Get("token"); ok && token != "" {
				return token
			}
		}
		if authMap, ok := hs.Auth.(map[string]any); ok {
			if token, ok := authMap["token"].(string); ok {
				return token
			}
		}
	}

	return ""
}

func (s *Server) socketID(sock *socket.Socket) string {
	if sock == nil {
		return ""
	}
	return string(sock.Id())
}

func claimsFromSocket(sock *socket.Socket) *jwtutil.Claims {
	if sock == nil {
		return nil
	}
	if claims, ok := sock.Data().(*jwtutil.Claims); ok {
		return claims
	}
	return nil
}

func bearer(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func stringArg(args []any) string {
	if len(args) == 0 {
		return ""
	}
	switch v := args[0].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	}
	return ""
}

// dayArg accepts a bare number, a numeric string, or {"dayNumber": n}.
func dayArg(args []any) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	raw := args[0]
	if payload, ok := raw.(map[string]any); ok {
		raw = payload["dayNumber"]
	}
	switch v := raw.(type) {
	case float64:
		return int(v), v > 0
	case int:
		return v, v > 0
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil && n > 0
	}
	return 0, false
}

func dayRoom(day int) socket.Room {
	return socket.Room("day_" + strconv.Itoa(day))
}

func userRoom(userID string) socket.Room {
	return socket.Room("user_" + userID)
}
