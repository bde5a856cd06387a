package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/courierops/fieldtrack/pkg/logger"
	wrap "github.com/courierops/fieldtrack/pkg/logger/wrapper"
	"github.com/courierops/fieldtrack/pkg/metrics"
	"github.com/courierops/fieldtrack/pkg/uuid"
	ws "github.com/courierops/fieldtrack/pkg/wsHub"
)

type Feed struct {
	hub      *ws.ConnectionHub
	upgrader websocket.Upgrader
	l        logger.Logger
}

func NewFeed(hub *ws.ConnectionHub, l logger.Logger) *Feed {
	return &Feed{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dispatch clients live on other origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		l: l,
	}
}

// Subscribe godoc
// @Summary      Live position feed
// @Description  Upgrades to a websocket that streams accepted fixes for one worker
// @Tags         Telemetry
// @Router       /ws/feed/{worker_id} [get]
func (h *Feed) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "feed_subscribe")

	watchID, err := uuid.Parse(r.PathValue("worker_id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid worker uuid format")
		return
	}

	id, err := uuid.New()
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to generate connection id", err)
		internalErrorResponse(w, err.Error())
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.l.Warn(ctx, "websocket upgrade failed", "error", err.Error())
		return
	}

	wsConn := ws.NewConn(ctx, id, watchID, conn)
	if err := h.hub.Add(wsConn); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to register feed connection", err)
		wsConn.Close()
		return
	}
	metrics.WebSocketConnectionsGauge.WithLabelValues("telemetry").Inc()
	h.l.Info(ctx, "feed subscriber connected", "worker_id", watchID, "conn_id", id)

	defer func() {
		if err := h.hub.Delete(id); err != nil {
			h.l.Warn(ctx, "failed to remove feed connection", "error", err.Error())
		}
		metrics.WebSocketConnectionsGauge.WithLabelValues("telemetry").Dec()
		h.l.Info(ctx, "feed subscriber disconnected", "worker_id", watchID, "conn_id", id)
	}()

	// The feed is push-only. Listen discards inbound frames and returns
	// once the client goes away.
	_ = wsConn.Listen(func(msg any) error { return nil })
}
