// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package tracker

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Annotate adds the caller's local state to an outward post object. A
// post seen before gets score.my_vote and is_hidden; a first sighting is
// left without my_vote, which callers read as "new".
func Annotate(post map[string]interface{}, obs Observation) {
	if !obs.Seen {
		return
	}
	score, ok := post["score"].(map[string]interface{})
	if !ok {
		score = make(map[string]interface{})
		post["score"] = score
	}
	score["my_vote"] = obs.Stats.Vote
	post["is_hidden"] = obs.Stats.Hidden
}

// AnnotateRaw decodes one raw post, annotates it and re-encodes it. The
// raw bytes are returned untouched when obs is a first sighting.
func AnnotateRaw(raw json.RawMessage, obs Observation) (json.RawMessage, error) {
	if !obs.Seen {
		return raw, nil
	}
	// UseNumber keeps ids and sizes exact through the round trip.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var post map[string]interface{}
	if err := dec.Decode(&post); err != nil {
		return nil, err
	}
	Annotate(post, obs)
	return json.Marshal(post)
}
