// CineGraph - Social Recommendation Engine for Movies & TV
// Copyright 2026 CineGraph Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinegraph/cinegraph

package api

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. Struct validation is
// stateless, so one instance serves all handlers.
var validate = validator.New()

// InteractionRequest is one interaction event as submitted by a client.
// A zero occurred_at is accepted; the engine treats it as "now".
type InteractionRequest struct {
	UserID     int64     `json:"user_id" validate:"required,gt=0"`
	ItemID     int64     `json:"item_id" validate:"required,gt=0"`
	MediaKind  string    `json:"media_kind" validate:"required"`
	EventKind  string    `json:"event_kind" validate:"required,oneof=watchlist watched favorite rating favorite_actor"`
	EventValue *float64  `json:"event_value,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BatchInteractionRequest carries multiple events in one call.
type BatchInteractionRequest struct {
	Events []InteractionRequest `json:"events" validate:"required,min=1,dive"`
}

// ReplaceUserRequest replaces one user's full event history. The
// user_id on individual events is ignored in favor of the top-level id.
type ReplaceUserRequest struct {
	UserID int64                    `json:"user_id" validate:"required,gt=0"`
	Events []ReplaceUserInteraction `json:"events" validate:"dive"`
}

// ReplaceUserInteraction is one event inside a replace-user payload.
type ReplaceUserInteraction struct {
	ItemID     int64     `json:"item_id" validate:"required,gt=0"`
	MediaKind  string    `json:"media_kind" validate:"required"`
	EventKind  string    `json:"event_kind" validate:"required,oneof=watchlist watched favorite rating favorite_actor"`
	EventValue *float64  `json:"event_value,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FollowsSyncRequest replaces a follower's followee set. An empty list
// clears the user's follows.
type FollowsSyncRequest struct {
	FollowerID  int64   `json:"follower_id" validate:"required,gt=0"`
	FolloweeIDs []int64 `json:"followee_ids" validate:"dive,gt=0"`
}

// InvalidateRequest drops cached models for one partition, or all when
// the partition is empty or "all".
type InvalidateRequest struct {
	Partition string `json:"partition"`
}

// validationDetails flattens validator errors into a readable list.
func validationDetails(err error) []string {
	var details []string
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			details = append(details, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
		}
		return details
	}
	return []string{err.Error()}
}
