package mqtt

import (
	"context"
	"strings"
	"sync"

	"github.com/kilianp07/ptgbot/core/chat"
)

// Roster tracks the privilege of channel members as reported by the
// gateway. Channel and nick lookups are case-insensitive.
type Roster struct {
	mu      sync.RWMutex
	members map[string]map[string]chat.Privilege
}

func NewRoster() *Roster {
	return &Roster{members: make(map[string]map[string]chat.Privilege)}
}

// Set records the privilege of nick. PrivilegeNone forgets the nick.
func (r *Roster) Set(channel, nick string, p chat.Privilege) {
	channel, nick = fold(channel), fold(nick)
	r.mu.Lock()
	defer r.mu.Unlock()
	if p == chat.PrivilegeNone {
		if m, ok := r.members[channel]; ok {
			delete(m, nick)
			if len(m) == 0 {
				delete(r.members, channel)
			}
		}
		return
	}
	m, ok := r.members[channel]
	if !ok {
		m = make(map[string]chat.Privilege)
		r.members[channel] = m
	}
	m[nick] = p
}

// Remove forgets nick in channel.
func (r *Roster) Remove(channel, nick string) {
	r.Set(channel, nick, chat.PrivilegeNone)
}

// Privilege returns the recorded status; unknown members have none.
func (r *Roster) Privilege(_ context.Context, channel, nick string) (chat.Privilege, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.members[fold(channel)][fold(nick)], nil
}

// Len returns the number of privileged members in channel.
func (r *Roster) Len(channel string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[fold(channel)])
}

func fold(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
