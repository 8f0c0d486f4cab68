package main

import (
	"encoding/json"
	"net/http"
)

// SavePushTokenRequest is the payload for saving or updating a push token.
type SavePushTokenRequest struct {
	Token      string          `json:"token" validate:"required,max=255"`
	DeviceInfo json.RawMessage `json:"device_info,omitempty"`
}

type RemovePushTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type BulkRemoveTokensRequest struct {
	Tokens []string `json:"tokens" validate:"required,min=1,dive,required"`
}

// savePushTokenHandler godoc
//
//	@Summary		Save or update a push notification token
//	@Description	Stores the caller's Expo push token so reservation events reach the device
//	@Tags			notifications
//	@Accept			json
//	@Param			payload	body	SavePushTokenRequest	true	"Push token data"
//	@Success		204
//	@Failure		400	{object}	error	"Bad Request"
//	@Failure		401	{object}	error	"Unauthorized"
//	@Security		ApiKeyAuth
//	@Router			/users/push-tokens [post]
func (app *application) savePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload SavePushTokenRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validatePayload(&payload); err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	if err := app.store.Repos().PushTokens.Save(r.Context(), user.UserID, payload.Token, payload.DeviceInfo); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// removePushTokenHandler godoc
//
//	@Summary	Remove a push notification token
//	@Tags		notifications
//	@Accept		json
//	@Param		payload	body	RemovePushTokenRequest	true	"Token to remove"
//	@Success	204
//	@Failure	400	{object}	error	"Bad Request"
//	@Security	ApiKeyAuth
//	@Router		/users/push-tokens [delete]
func (app *application) removePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload RemovePushTokenRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validatePayload(&payload); err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	if err := app.store.Repos().PushTokens.Remove(r.Context(), user.UserID, payload.Token); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bulkRemovePushTokensHandler godoc
//
//	@Summary		Bulk remove push notification tokens
//	@Description	Drops tokens the push service reported as unregistered
//	@Tags			admin
//	@Accept			json
//	@Param			payload	body	BulkRemoveTokensRequest	true	"Tokens to remove"
//	@Success		204
//	@Failure		400	{object}	error	"Bad Request"
//	@Failure		403	{object}	error	"Forbidden"
//	@Security		ApiKeyAuth
//	@Router			/admin/push-tokens [delete]
func (app *application) bulkRemovePushTokensHandler(w http.ResponseWriter, r *http.Request) {
	var payload BulkRemoveTokensRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validatePayload(&payload); err != nil {
		app.engineErrorResponse(w, r, err)
		return
	}

	if err := app.store.Repos().PushTokens.Discard(r.Context(), payload.Tokens); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
