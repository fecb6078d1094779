// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package remote

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
)

// ListOptions selects a listing page. Zero values are not sent.
type ListOptions struct {
	Page  int
	Tags  string
	Limit int
}

// Args renders the options in page, tags, limit order.
func (o ListOptions) Args() []QueryArg {
	var args []QueryArg
	if o.Page > 0 {
		args = append(args, Arg("page", o.Page))
	}
	if o.Tags != "" {
		args = append(args, Arg("tags", o.Tags))
	}
	if o.Limit > 0 {
		args = append(args, Arg("limit", o.Limit))
	}
	return args
}

type listPostsResponse struct {
	Posts []json.RawMessage `json:"posts"`
}

// ListPosts fetches one listing page and returns its posts undecoded.
func (c *Client) ListPosts(ctx context.Context, opts ListOptions) ([]json.RawMessage, error) {
	resp, err := c.Call(ctx, http.MethodGet, "posts.json", opts.Args())
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var out listPostsResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decode posts listing: %w", err)
	}
	if out.Posts == nil {
		return []json.RawMessage{}, nil
	}
	return out.Posts, nil
}

// AddFavorite favorites a post on the remote board.
func (c *Client) AddFavorite(ctx context.Context, postID int64) error {
	resp, err := c.Call(ctx, http.MethodPost, "favorites.json", []QueryArg{Arg("post_id", postID)})
	if err != nil {
		return err
	}
	return resp.Err()
}

// RemoveFavorite removes a post from the remote favorites.
func (c *Client) RemoveFavorite(ctx context.Context, postID int64) error {
	resp, err := c.Call(ctx, http.MethodDelete, "favorites/"+strconv.FormatInt(postID, 10)+".json", nil)
	if err != nil {
		return err
	}
	return resp.Err()
}

// VoteResult is the board's answer to a vote. OurScore is the caller's
// resulting vote: -1, 0 (after an unvote) or 1.
type VoteResult struct {
	Score    int `json:"score"`
	Up       int `json:"up"`
	Down     int `json:"down"`
	OurScore int `json:"our_score"`
}

// Vote casts an up (1) or down (-1) vote. Voting the same direction twice
// removes the vote unless noUnvote is set.
func (c *Client) Vote(ctx context.Context, postID int64, score int, noUnvote bool) (VoteResult, error) {
	if score != 1 && score != -1 {
		return VoteResult{}, fmt.Errorf("vote score must be 1 or -1, got %d", score)
	}

	resp, err := c.Call(ctx, http.MethodPost,
		"posts/"+strconv.FormatInt(postID, 10)+"/votes.json",
		[]QueryArg{Arg("score", score), Arg("no_unvote", noUnvote)})
	if err != nil {
		return VoteResult{}, err
	}
	if err := resp.Err(); err != nil {
		return VoteResult{}, err
	}

	var out VoteResult
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return VoteResult{}, fmt.Errorf("decode vote response: %w", err)
	}
	return out, nil
}

// ListComments returns the comments of a post as the board serves them.
func (c *Client) ListComments(ctx context.Context, postID int64) (json.RawMessage, error) {
	resp, err := c.Call(ctx, http.MethodGet, "comments.json", []QueryArg{
		Arg("group_by", "comment"),
		Arg("search[post_id]", postID),
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return json.RawMessage(resp.Body), nil
}
