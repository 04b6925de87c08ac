// Package chat describes the boundary between the bot core and the chat
// transport. The transport delivers channel messages as Events, answers
// privilege queries about channel members and carries reply lines back.
package chat

import (
	"context"
	"fmt"
	"strings"
)

// Event is one channel message from an identified sender.
type Event struct {
	Sender  string `json:"sender"`
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

// Privilege is a member's status in a channel.
type Privilege int

const (
	PrivilegeNone Privilege = iota
	PrivilegeVoiced
	PrivilegeOperator
)

func (p Privilege) String() string {
	switch p {
	case PrivilegeVoiced:
		return "voiced"
	case PrivilegeOperator:
		return "operator"
	default:
		return "none"
	}
}

// ParsePrivilege accepts the names produced by String as well as the IRC
// mode letters "v" and "o".
func ParsePrivilege(s string) (Privilege, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PrivilegeNone, nil
	case "voiced", "voice", "v":
		return PrivilegeVoiced, nil
	case "operator", "op", "o":
		return PrivilegeOperator, nil
	default:
		return PrivilegeNone, fmt.Errorf("unknown privilege %q", s)
	}
}

// Replier sends a single line to a channel. Implementations may pace
// consecutive sends.
type Replier interface {
	Send(ctx context.Context, channel, line string) error
}

// PrivilegeSource reports the live status of a channel member.
type PrivilegeSource interface {
	Privilege(ctx context.Context, channel, nick string) (Privilege, error)
}

// Handler consumes events one at a time.
type Handler func(ctx context.Context, ev Event)
