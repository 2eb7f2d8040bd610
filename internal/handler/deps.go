package handler

import (
	"net/http"

	"github.com/google/uuid"

	"bitarena/internal/app/arena"
	"bitarena/internal/app/battle"
	"bitarena/internal/app/bus"
	"bitarena/internal/app/room"
	"bitarena/internal/app/store"
	"bitarena/internal/configs"
	"bitarena/internal/pkg/auth/jwt"
	"bitarena/internal/pkg/errs"
)

// AppDeps bundles the services every handler draws on.
type AppDeps struct {
	Config  *configs.AppConfig
	Store   *store.Store
	Bus     *bus.Bus
	Hub     *arena.Hub
	Keeper  *arena.Timekeeper
	Rooms   *room.Service
	Battles *battle.Service
}

// identityFrom resolves the verified caller identity placed in the request
// context by the auth middleware.
func identityFrom(r *http.Request) (room.Identity, *errs.CustomError) {
	payload := jwt.GetPayloadFromContext(r)
	if payload == nil {
		return room.Identity{}, errs.NewError(errs.ErrUnauthorized)
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return room.Identity{}, errs.NewError(errs.ErrUnauthorized)
	}

	return room.Identity{UserID: userID, Username: payload.Username}, nil
}
