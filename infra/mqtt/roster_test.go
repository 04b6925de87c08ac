package mqtt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/ptgbot/core/chat"
)

func TestRoster(t *testing.T) {
	r := NewRoster()
	ctx := context.Background()

	r.Set("#PTG", "Alice", chat.PrivilegeOperator)
	r.Set("#ptg", "bob", chat.PrivilegeVoiced)

	p, err := r.Privilege(ctx, "#ptg", "alice")
	assert.NoError(t, err)
	assert.Equal(t, chat.PrivilegeOperator, p)

	p, _ = r.Privilege(ctx, "#other", "alice")
	assert.Equal(t, chat.PrivilegeNone, p)

	r.Set("#ptg", "BOB", chat.PrivilegeNone)
	p, _ = r.Privilege(ctx, "#ptg", "bob")
	assert.Equal(t, chat.PrivilegeNone, p)
	assert.Equal(t, 1, r.Len("#ptg"))

	r.Remove("#ptg", "alice")
	assert.Equal(t, 0, r.Len("#ptg"))
}
