package command

import (
	"context"
	"fmt"

	"github.com/kilianp07/ptgbot/core/chat"
)

// Tier is the privilege level a command requires.
type Tier int

const (
	TierPublic Tier = iota
	TierVoiced
	TierOperator
)

func (t Tier) String() string {
	switch t {
	case TierVoiced:
		return "voice"
	case TierOperator:
		return "operator"
	default:
		return "public"
	}
}

// Allows reports whether a member holding p meets tier t. Operators
// implicitly hold voice.
func (t Tier) Allows(p chat.Privilege) bool {
	switch t {
	case TierVoiced:
		return p == chat.PrivilegeVoiced || p == chat.PrivilegeOperator
	case TierOperator:
		return p == chat.PrivilegeOperator
	default:
		return true
	}
}

// Gate checks senders against command tiers. The privilege is looked up
// on every check since channel modes change between messages.
type Gate struct {
	Source chat.PrivilegeSource
}

// Check returns *Unauthorized when sender may not issue kind in channel.
// With requireVoice off, voice-tier commands are open to everyone.
func (g Gate) Check(ctx context.Context, channel, sender string, kind Kind, requireVoice bool) error {
	tier := kind.Tier()
	if tier == TierPublic || (tier == TierVoiced && !requireVoice) {
		return nil
	}
	if g.Source == nil {
		return &Unauthorized{Required: tier}
	}
	p, err := g.Source.Privilege(ctx, channel, sender)
	if err != nil {
		return fmt.Errorf("privilege of %s in %s: %w", sender, channel, err)
	}
	if !tier.Allows(p) {
		return &Unauthorized{Required: tier}
	}
	return nil
}
