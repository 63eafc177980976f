// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON HTTP API. Handlers decode requests,
// call into the blog service or stores and map domain errors to statuses.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"cognitio/internal/blog"
	"cognitio/internal/policy"
)

// maxBodySize bounds JSON request bodies. Posts may inline a data-URI
// image, so the limit sits above blog.MaxImageLength.
const maxBodySize = blog.MaxImageLength + 1<<20

// errorBody is the shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// decodeJSON reads the request body into v. It writes a 400 and returns
// false when the body is missing or malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "Request body is too large.")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "Request body is required.")
		default:
			writeError(w, http.StatusBadRequest, "Request body is not valid JSON.")
		}
		return false
	}
	return true
}

// pathID parses the {id} URL parameter, writing a 404 when it is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Post not found.")
		return uuid.Nil, false
	}
	return id, true
}

// fail maps a service error to its HTTP status.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *blog.ValidationError
	var perr *blog.PersistenceError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, policy.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "You do not have permission to do that.")
	case errors.Is(err, blog.ErrNotFound):
		writeError(w, http.StatusNotFound, "Post not found.")
	case errors.As(err, &perr):
		slog.Error("persistence failure", "op", perr.Op, "path", r.URL.Path, "error", perr.Err)
		writeError(w, http.StatusInternalServerError, perr.UserMessage())
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
