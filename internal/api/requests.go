// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/e6tracker/internal/validation"
)

// maxBodyBytes bounds request bodies; every body here is a few bytes.
const maxBodyBytes = 64 << 10

// ListingRequest holds the query of GET /posts.
type ListingRequest struct {
	Tags  string `json:"tags" validate:"tagquery"`
	Page  int    `json:"page" validate:"min=0,max=750"`
	Limit int    `json:"limit" validate:"min=0,max=320"`
}

// LocalPostsRequest holds the query of GET /local/posts.
type LocalPostsRequest struct {
	Tag      string `json:"tag" validate:"max=200"`
	Category string `json:"category" validate:"omitempty,tagcategory"`
	Limit    int    `json:"limit" validate:"min=0,max=500"`
	Offset   int    `json:"offset" validate:"min=0,max=10000000"`
}

// VoteRequest is the body of POST /posts/{id}/vote. 0 clears the vote.
type VoteRequest struct {
	Vote *int `json:"vote" validate:"required,oneof=-1 0 1"`
}

// HideRequest is the body of POST /posts/{id}/hide.
type HideRequest struct {
	Hidden *bool `json:"hidden" validate:"required"`
}

// RelatedTagsRequest holds the query of GET /tags/{id}/related.
type RelatedTagsRequest struct {
	Limit int `json:"limit" validate:"min=1,max=200"`
}

// validateRequest writes a 400 and returns false when v fails validation.
func validateRequest(w http.ResponseWriter, v interface{}) bool {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return true
	}
	respondAPIError(w, http.StatusBadRequest, verr.ToAPIError())
	return false
}

// decodeBody reads a JSON body into v and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "Invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, msg, nil, err)
		return false
	}
	return validateRequest(w, v)
}

// intQuery reads an integer query parameter. A malformed value writes a
// 400 and returns false.
func intQuery(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest,
			key+" must be an integer", map[string]interface{}{"field": key}, nil)
		return 0, false
	}
	return v, true
}

// boolQuery reads an optional boolean query parameter.
func boolQuery(w http.ResponseWriter, r *http.Request, key string) (*bool, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest,
			key+" must be true or false", map[string]interface{}{"field": key}, nil)
		return nil, false
	}
	return &v, true
}

// idParam reads a positive {id} path parameter.
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest,
			"id must be a positive integer", map[string]interface{}{"field": "id"}, nil)
		return 0, false
	}
	return id, true
}
