/*
Package handler provides the HTTP handlers and routing setup for the arena server.

This file holds the room lifecycle endpoints: create, list, inspect, join,
kick, start, and status updates. All business rules live in the room
service; handlers only bind input, resolve the caller, and shape responses.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bitarena/internal/app/events"
	"bitarena/internal/app/room"
	"bitarena/internal/pkg/errs"
	"bitarena/internal/pkg/logx"
	"bitarena/internal/pkg/req"
	"bitarena/internal/pkg/resp"
)

// roomIDParam parses the {id} route parameter.
func roomIDParam(r *http.Request) (uuid.UUID, *errs.CustomError) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errs.NewError(errs.ErrInvalidParams)
	}
	return id, nil
}

// HandleCreateRoom creates a room owned by the caller.
func HandleCreateRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, customErr := identityFrom(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input room.CreateInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		created, customErr := deps.Rooms.Create(r.Context(), caller, input)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		logx.Info("Room created", "room_id", created.ID, "owner", caller.Username)

		resp.RespondJSON(w, r, http.StatusCreated, resp.JSONResponse{
			Message: "Room created successfully",
			Data: map[string]any{
				"room_id":   created.ID.String(),
				"room_name": created.Name,
				"join_code": created.JoinCode,
			},
		})
	}
}

// HandleListRooms returns every active room with its participants.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, customErr := deps.Rooms.ListActive(r.Context())
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		resp.RespondSuccess(w, r, map[string]any{"rooms": views})
	}
}

// HandleGetRoom returns one room with its participants.
func HandleGetRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID, customErr := roomIDParam(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		loaded, participants, customErr := deps.Rooms.Get(r.Context(), roomID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, events.NewRoomView(loaded, participants))
	}
}

// JoinRoomInput is the join request body.
type JoinRoomInput struct {
	Password string `json:"password,omitempty"`
}

// HandleJoinRoom admits the caller into a room.
func HandleJoinRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, customErr := identityFrom(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		roomID, customErr := roomIDParam(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input JoinRoomInput
		if r.ContentLength > 0 {
			if customErr := req.BindJSON(r, &input); customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}
		}

		joined, customErr := deps.Rooms.Join(r.Context(), caller, roomID, input.Password)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		participants, err := deps.Store.ListParticipants(r.Context(), roomID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorage))
			return
		}

		resp.RespondSuccess(w, r, events.NewRoomView(joined, participants))
	}
}

// KickInput is the kick request body.
type KickInput struct {
	Username string `json:"username"`
}

// HandleKickParticipant removes a participant from a room, host only.
func HandleKickParticipant(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, customErr := identityFrom(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		roomID, customErr := roomIDParam(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input KickInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if input.Username == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if customErr := deps.Rooms.Kick(r.Context(), caller, roomID, input.Username); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"kicked": input.Username})
	}
}

// HandleStartRoom transitions a room into its battle phase, host only. The
// battle clock for time-limited rooms starts with the transition.
func HandleStartRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, customErr := identityFrom(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		roomID, customErr := roomIDParam(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		questionID, customErr := deps.Rooms.Start(r.Context(), caller, roomID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if loaded, _, err := deps.Rooms.Get(r.Context(), roomID); err == nil && loaded.TimeLimit > 0 {
			deps.Keeper.EnsureBattleTimer(roomID)
		}

		resp.RespondSuccess(w, r, map[string]any{
			"room_id":     roomID.String(),
			"question_id": questionID.String(),
		})
	}
}

// StatusInput is the status patch body.
type StatusInput struct {
	Status string `json:"status"`
}

// HandleUpdateRoomStatus applies a host-requested status change.
func HandleUpdateRoomStatus(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, customErr := identityFrom(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		roomID, customErr := roomIDParam(r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		var input StatusInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := deps.Rooms.UpdateStatus(r.Context(), caller, roomID, input.Status); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, map[string]any{"status": input.Status})
	}
}
