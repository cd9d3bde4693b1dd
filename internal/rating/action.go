// Package rating applies like, dislike and skip decisions from a client's
// review queue to the user's special collections.
package rating

import (
	"errors"
	"fmt"
	"strings"

	"github.com/baing/baing/internal/collections"
)

// Action is a user's decision about one recommended item.
type Action string

const (
	ActionLike    Action = "like"
	ActionDislike Action = "dislike"
	ActionSkip    Action = "skip"
)

var ErrUnknownAction = errors.New("unknown rating action")

var actionLabels = map[Action]string{
	ActionLike:    collections.SpecialLiked,
	ActionDislike: collections.SpecialDisliked,
	ActionSkip:    collections.SpecialSkipped,
}

// ParseAction accepts the action name or its first letter.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "like", "l":
		return ActionLike, nil
	case "dislike", "d":
		return ActionDislike, nil
	case "skip", "s":
		return ActionSkip, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Label returns the special-collection label the action writes to.
func (a Action) Label() string {
	return actionLabels[a]
}

func (a Action) Valid() bool {
	_, ok := actionLabels[a]
	return ok
}
