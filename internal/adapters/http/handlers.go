package http

import (
	"net/http"

	"github.com/dkeye/samerow/internal/app/orch"
	"github.com/dkeye/samerow/internal/config"
	"github.com/dkeye/samerow/internal/core"
	"github.com/dkeye/samerow/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
)

type Handlers struct {
	Orch *orch.Orchestrator
	Cfg  *config.Config
}

type StatusResponse struct {
	Message string `json:"message"`
}

type RoomsResponse struct {
	Rooms    []core.RoomInfo `json:"rooms"`
	Sessions int             `json:"sessions"`
}

type PlaybackView struct {
	MediaRef        *string `json:"mediaRef"`
	IsPlaying       bool    `json:"isPlaying"`
	PositionSeconds float64 `json:"positionSeconds"`
	LastUpdate      int64   `json:"lastUpdate"`
}

type RoomResponse struct {
	ID       domain.RoomID    `json:"id"`
	Members  []core.MemberDTO `json:"members"`
	Playback PlaybackView     `json:"playback"`
}

type ICEServersResponse struct {
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Message: "Server is running"})
}

func (h *Handlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, RoomsResponse{
		Rooms:    h.Orch.Rooms.List(),
		Sessions: h.Orch.Registry.Count(),
	})
}

func (h *Handlers) GetRoom(c *gin.Context) {
	room, ok := h.Orch.Rooms.Get(domain.RoomID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	p := room.Playback()
	view := PlaybackView{
		IsPlaying:       p.IsPlaying,
		PositionSeconds: p.PositionSeconds,
		LastUpdate:      p.LastUpdate.UnixMilli(),
	}
	if p.Active() {
		view.MediaRef = &p.MediaRef
	}
	c.JSON(http.StatusOK, RoomResponse{
		ID:       room.ID(),
		Members:  room.MembersSnapshot(),
		Playback: view,
	})
}

func (h *Handlers) ICEServers(c *gin.Context) {
	c.JSON(http.StatusOK, ICEServersResponse{ICEServers: h.Cfg.WebRTCICEServers()})
}
