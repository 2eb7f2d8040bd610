/*
Package handler provides the HTTP handlers and routing setup for the arena server.

This file upgrades the three realtime endpoints — global lobby, room lobby,
and battle — authenticating the query-string token and applying the custom
close codes before handing the connection to its arena session.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"bitarena/internal/app/arena"
	"bitarena/internal/app/room"
	"bitarena/internal/app/store"
	"bitarena/internal/pkg/auth/jwt"
	"bitarena/internal/pkg/errs"
	"bitarena/internal/pkg/limiter"
	"bitarena/internal/pkg/logx"
	"bitarena/internal/pkg/resp"
)

// upgradeAndAuthenticate upgrades the connection and validates the bearer
// token from the query string. Authentication failures are reported with the
// contractual close codes on the upgraded socket.
func upgradeAndAuthenticate(deps *AppDeps, upgrader websocket.Upgrader, kind string, w http.ResponseWriter, r *http.Request) *arena.Client {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Error(err, "Failed to upgrade connection to WebSocket")
		return nil
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		client := arena.NewClient(conn, room.Identity{}, kind)
		client.CloseWithCode(arena.CloseMissingToken, "No token provided")
		return nil
	}

	payload, err := jwt.ParseToken(token, deps.Config.JWTSecret)
	if err != nil {
		logx.Warn("WebSocket token rejected", "error", err)
		client := arena.NewClient(conn, room.Identity{}, kind)
		client.CloseWithCode(arena.CloseInvalidToken, "Invalid or expired token")
		return nil
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		client := arena.NewClient(conn, room.Identity{}, kind)
		client.CloseWithCode(arena.CloseInvalidToken, "Invalid or expired token")
		return nil
	}

	identity := room.Identity{UserID: userID, Username: payload.Username}
	return arena.NewClient(conn, identity, kind)
}

// rateLimited rejects over-limit upgrade attempts before any work is done.
func rateLimited(rateLimiter *limiter.IPRateLimiter, w http.ResponseWriter, r *http.Request) bool {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	if ip == "" {
		ip = "unknown_ip"
	}

	if !rateLimiter.GetLimiter(ip).Allow() {
		logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
		resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
		return true
	}
	return false
}

// HandleGlobalLobbyWS serves /ws/rooms/ — the room-list stream.
func HandleGlobalLobbyWS(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rateLimited(rateLimiter, w, r) {
			return
		}

		client := upgradeAndAuthenticate(deps, upgrader, "rooms", w, r)
		if client == nil {
			return
		}

		logx.Info("Global lobby connection established", "user", client.Identity().Username)
		arena.RunGlobalLobby(r.Context(), deps.Hub, deps.Rooms, client)
	}
}

// HandleRoomLobbyWS serves /ws/room/{room_id}/ — one room's lobby channel.
func HandleRoomLobbyWS(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rateLimited(rateLimiter, w, r) {
			return
		}

		client := upgradeAndAuthenticate(deps, upgrader, "lobby", w, r)
		if client == nil {
			return
		}

		roomID, err := uuid.Parse(chi.URLParam(r, "room_id"))
		if err != nil {
			client.CloseWithCode(arena.CloseRoomUnauthorized, "Room not found")
			return
		}

		ctx := r.Context()
		identity := client.Identity()

		loaded, getErr := deps.Store.GetRoom(ctx, roomID)
		if getErr != nil {
			client.CloseWithCode(arena.CloseRoomUnauthorized, "Room not found")
			return
		}

		// Private rooms require an existing non-kicked membership, earned
		// through the HTTP join with the password. The owner always passes.
		if loaded.Visibility == store.VisibilityPrivate && loaded.OwnerID != identity.UserID {
			participant, err := deps.Store.GetParticipant(ctx, roomID, identity.UserID)
			if err != nil || participant.Status == store.ParticipantKicked {
				client.CloseWithCode(arena.CloseRoomUnauthorized, "Not authorized to join private room")
				return
			}
		}

		if _, customErr := deps.Rooms.EnsureJoined(ctx, identity, roomID); customErr != nil {
			client.CloseWithCode(arena.CloseRoomUnauthorized, customErr.Message)
			return
		}

		logx.Info("Lobby connection established", "user", identity.Username, "room_id", roomID)
		arena.RunRoomLobby(ctx, deps.Hub, deps.Rooms, deps.Keeper, deps.Store, client, roomID)
	}
}

// HandleBattleWS serves /ws/battle/{room_id}/ — the in-battle channel.
func HandleBattleWS(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rateLimited(rateLimiter, w, r) {
			return
		}

		client := upgradeAndAuthenticate(deps, upgrader, "battle", w, r)
		if client == nil {
			return
		}

		roomID, err := uuid.Parse(chi.URLParam(r, "room_id"))
		if err != nil {
			client.CloseWithCode(arena.CloseRoomUnauthorized, "Room not found")
			return
		}

		ctx := r.Context()

		if _, err := deps.Store.GetRoom(ctx, roomID); err != nil {
			client.CloseWithCode(arena.CloseRoomUnauthorized, "Room not found")
			return
		}

		logx.Info("Battle connection established", "user", client.Identity().Username, "room_id", roomID)
		arena.RunBattle(ctx, deps.Hub, deps.Keeper, deps.Store, client, roomID)
	}
}
