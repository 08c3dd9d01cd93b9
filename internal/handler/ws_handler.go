package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stemsi/rollbook/internal/middleware"
	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/response"
	"github.com/stemsi/rollbook/internal/roster"
	"github.com/stemsi/rollbook/internal/service"
	ws "github.com/stemsi/rollbook/internal/websocket"
)

// rosterBuffer bounds the transitions queued for a slow roster client.
const rosterBuffer = 64

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the live roster feed and the attendance sheet session.
type WSHandler struct {
	authService       *service.AuthService
	roster            *roster.Store
	attendanceService *service.AttendanceService
	now               func() time.Time
	log               zerolog.Logger
	upgrader          websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(authService *service.AuthService, store *roster.Store, attendanceService *service.AttendanceService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		authService:       authService,
		roster:            store,
		attendanceService: attendanceService,
		now:               time.Now,
		log:               log.With().Str("component", "ws_handler").Logger(),
		upgrader:          buildUpgrader(allowedOrigins),
	}
}

// RosterStream godoc
// WS /ws/v1/roster?token=...
// Sends the current roster state, then every transition as it happens.
func (h *WSHandler) RosterStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("uid", claims.Subject).Str("stream", "roster").Logger()
	wsLog.Info().Msg("Teacher connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events := make(chan ws.RosterResponse, rosterBuffer)
	unsubscribe := h.roster.Subscribe(func(a roster.Action, st roster.State) {
		select {
		case events <- ws.RosterResponse{Event: ws.EventRoster, Action: &a, State: st}:
		default:
			wsLog.Warn().Str("action", a.String()).Msg("Roster client too slow, disconnecting")
			cancel()
		}
	})
	defer unsubscribe()

	if err := conn.WriteTyped(ws.RosterResponse{Event: ws.EventRoster, State: h.roster.State()}); err != nil {
		return
	}

	go func() {
		defer cancel()
		for {
			var msg ws.RequestPayload
			if err := conn.ReadJSON(&msg); err != nil {
				if malformed(err) {
					_ = conn.WriteError(string(response.ErrUnsupportedWSMessage), "malformed message")
					continue
				}
				logClose(wsLog, err)
				return
			}
			if msg.Action == ws.ActionPing {
				_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
				continue
			}
			_ = conn.WriteError(string(response.ErrUnsupportedWSMessage), "unknown action: "+string(msg.Action))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if err := conn.WriteTyped(ev); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
		}
	}
}

// AttendanceSession godoc
// WS /ws/v1/attendance?token=...
// Holds one sheet per connection. The client toggles cells and saves; the
// sheet is only written to the store on "save". The login session is checked
// again before every save, so a stream opened before logout cannot write.
func (h *WSHandler) AttendanceSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("uid", claims.Subject).Str("stream", "attendance").Logger()
	wsLog.Info().Msg("Teacher connected")

	ctx := c.Request.Context()
	sheet, ok := h.loadSheet(ctx, conn)
	if !ok {
		return
	}

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if malformed(err) {
				_ = conn.WriteError(string(response.ErrUnsupportedWSMessage), "malformed message")
				continue
			}
			logClose(wsLog, err)
			return
		}

		switch msg.Action {
		case ws.ActionToggle:
			if sheet == nil {
				_ = conn.WriteError(string(response.ErrStoreRead), "sheet is not loaded")
				continue
			}
			mark, err := sheet.Toggle(msg.StudentID, msg.Day)
			if err != nil {
				writeFailure(conn, err)
				continue
			}
			_ = conn.WriteTyped(ws.CellResponse{Event: ws.EventCell, StudentID: msg.StudentID, Day: msg.Day, Mark: mark})

		case ws.ActionSave:
			if sheet == nil {
				_ = conn.WriteError(string(response.ErrStoreRead), "sheet is not loaded")
				continue
			}
			if err := h.authService.ValidateSession(ctx, claims.Subject, claims.ID); err != nil {
				if errors.Is(err, service.ErrNoSession) || errors.Is(err, service.ErrSessionInvalidated) {
					wsLog.Info().Msg("Session ended, closing attendance stream")
					_ = conn.WriteError(string(response.ErrSessionInvalidated), response.GetMessage(response.ErrSessionInvalidated))
					return
				}
				wsLog.Error().Err(err).Msg("Session check failed")
				_ = conn.WriteError(string(response.ErrInternal), response.GetMessage(response.ErrInternal))
				continue
			}
			if err := h.attendanceService.SaveAll(ctx, sheet); err != nil {
				writeFailure(conn, err)
				continue
			}
			wsLog.Info().Int("rows", len(sheet.Rows)).Msg("Sheet saved")
			_ = conn.WriteTyped(ws.SavedResponse{Event: ws.EventSaved, Rows: len(sheet.Rows)})

		case ws.ActionReload:
			fresh, ok := h.loadSheet(ctx, conn)
			if !ok {
				return
			}
			if fresh != nil {
				sheet = fresh
			}

		case ws.ActionPing:
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})

		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			_ = conn.WriteError(string(response.ErrUnsupportedWSMessage), "unknown action: "+string(msg.Action))
		}
	}
}

// loadSheet fetches a fresh sheet and sends it. A store failure is reported
// to the client and yields a nil sheet; ok is false only when the connection
// is gone.
func (h *WSHandler) loadSheet(ctx context.Context, conn *ws.Conn) (*model.AttendanceSheet, bool) {
	sheet, err := h.attendanceService.Load(ctx, h.now())
	if err != nil {
		return nil, writeFailure(conn, err) == nil
	}
	if err := conn.WriteTyped(ws.SheetResponse{Event: ws.EventSheet, Sheet: sheet}); err != nil {
		return nil, false
	}
	return sheet, true
}

func writeFailure(conn *ws.Conn, err error) error {
	_, code, msg := classify(err)
	return conn.WriteError(string(code), msg)
}

// malformed reports a frame that arrived whole but did not decode. The
// connection is still usable after one.
func malformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

func logClose(log zerolog.Logger, err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		log.Warn().Err(err).Msg("Unexpected close")
		return
	}
	log.Debug().Msg("Connection closed")
}
