package ptz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vigilcam/ptzd/internal/api"
	"github.com/vigilcam/ptzd/internal/api/ws"
	"github.com/vigilcam/ptzd/internal/app"
	"github.com/vigilcam/ptzd/pkg/onvif"
)

// monitorID from `?src=` query or from last path part: `/api/ptz/move/<id>`
func monitorID(r *http.Request) string {
	if id := r.URL.Query().Get("src"); id != "" {
		return id
	}
	for _, prefix := range []string{"/capabilities/", "/move/"} {
		if _, id, ok := strings.Cut(r.URL.Path, prefix); ok {
			return id
		}
	}
	return ""
}

func apiCapabilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	id := monitorID(r)
	if id == "" {
		http.Error(w, "no monitor", http.StatusBadRequest)
		return
	}

	caps, err := service.Capabilities(r.Context(), id)
	if err != nil {
		api.ResponseError(w, err, errorStatus(err))
		return
	}

	api.ResponseJSON(w, caps)
}

type moveRequest struct {
	Src       string          `json:"src,omitempty"`
	Direction onvif.Direction `json:"direction"`
}

func apiMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	id := monitorID(r)
	if id == "" {
		http.Error(w, "no monitor", http.StatusBadRequest)
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.ResponseError(w, err, http.StatusBadRequest)
		return
	}

	res, err := service.Move(r.Context(), id, req.Direction)
	if err != nil {
		api.ResponseError(w, err, errorStatus(err))
		return
	}

	api.ResponseJSON(w, res)
}

func apiMonitors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		api.ResponsePrettyJSON(w, service.MonitorsList(r.Context()))

	case "PUT":
		id := r.URL.Query().Get("src")
		if id == "" {
			http.Error(w, "no monitor", http.StatusBadRequest)
			return
		}

		var req struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			http.Error(w, "wrong body", http.StatusBadRequest)
			return
		}

		if err := app.PatchConfig(id, req.URL, "monitors"); err != nil {
			api.ResponseError(w, err, http.StatusInternalServerError)
			return
		}

	case "DELETE":
		id := r.URL.Query().Get("src")
		if _, err := service.Monitors.Get(id); err != nil {
			api.ResponseError(w, err, http.StatusNotFound)
			return
		}

		if err := app.PatchConfig(id, nil, "monitors"); err != nil {
			api.ResponseError(w, err, http.StatusInternalServerError)
			return
		}

	default:
		http.Error(w, "", http.StatusMethodNotAllowed)
	}
}

func apiDiscovery(w http.ResponseWriter, r *http.Request) {
	urls, err := onvif.DiscoverDevices(r.Context(), onvif.DiscoveryTimeout)
	if err != nil {
		api.ResponseError(w, err, http.StatusInternalServerError)
		return
	}

	if urls == nil {
		urls = []string{}
	}

	api.ResponseJSON(w, urls)
}

func wsMove(tr *ws.Transport, msg *ws.Message) error {
	var req moveRequest
	if err := msg.Unmarshal(&req); err != nil {
		return err
	}

	res, err := service.Move(tr.Context(), req.Src, req.Direction)
	if err != nil {
		return err
	}

	tr.Write(&ws.Message{Type: "ptz", Value: res})
	return nil
}

// errorStatus map command errors to HTTP status
func errorStatus(err error) int {
	var lockErr *LockError
	var moveErr *onvif.MoveError

	switch {
	case errors.Is(err, ErrUnknownMonitor), errors.Is(err, onvif.ErrNoProfiles):
		return http.StatusNotFound
	case errors.Is(err, ErrBadDirection):
		return http.StatusBadRequest
	case errors.Is(err, onvif.ErrAbsoluteUnsupported):
		return http.StatusNotImplemented
	case errors.As(err, &lockErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, onvif.ErrFetchProfiles), errors.As(err, &moveErr):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
