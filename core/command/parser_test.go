package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublic(t *testing.T) {
	cases := []struct {
		line string
		want Command
	}{
		{"keynote now \"Opening remarks\"", Command{Kind: KindNow, Track: "keynote", Text: "Opening remarks"}},
		{"Nova NEXT Upgrades   and  Cells", Command{Kind: KindNext, Track: "nova", Text: "Upgrades and Cells"}},
		{"nova color #00FF00", Command{Kind: KindColor, Track: "nova", Text: "#00FF00"}},
		{"nova location Level 2, room 201", Command{Kind: KindLocation, Track: "nova", Text: "Level 2, room 201"}},
		{"keynote book A-1", Command{Kind: KindBook, Track: "keynote", Room: "a", Slot: "1"}},
		{"keynote book Ballroom-Mon-AM", Command{Kind: KindBook, Track: "keynote", Room: "ballroom", Slot: "mon-am"}},
		{"nova clean", Command{Kind: KindClean, Track: "nova"}},
	}
	for _, c := range cases {
		got, err := Parse(c.line, ModePublic)
		require.NoError(t, err, c.line)
		assert.Equal(t, c.want, got, c.line)
	}
}

func TestParseAdmin(t *testing.T) {
	cases := []struct {
		line string
		want Command
	}{
		{"reload", Command{Kind: KindReload}},
		{"UNBOOK A-1", Command{Kind: KindUnbook, Room: "a", Slot: "1"}},
		{"newday", Command{Kind: KindNewDay}},
		{"requirevoice", Command{Kind: KindRequireVoice}},
		{"alloweveryone", Command{Kind: KindAllowEveryone}},
		{"list", Command{Kind: KindList}},
		{"add Nova swift", Command{Kind: KindAddTracks, Args: []string{"nova", "swift"}}},
		{"del nova", Command{Kind: KindDelTracks, Args: []string{"nova"}}},
		{"clean nova swift", Command{Kind: KindCleanTracks, Args: []string{"nova", "swift"}}},
	}
	for _, c := range cases {
		got, err := Parse(c.line, ModeAdmin)
		require.NoError(t, err, c.line)
		assert.Equal(t, c.want, got, c.line)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		line   string
		mode   Mode
		reason Reason
		token  string
	}{
		{"", ModePublic, TooFewTokens, ""},
		{"nova", ModePublic, TooFewTokens, ""},
		{"nova now", ModePublic, TooFewTokens, ""},
		{"nova now \"\"", ModePublic, TooFewTokens, ""},
		{"nova book", ModePublic, TooFewTokens, ""},
		{"nova dance", ModePublic, UnknownVerb, "dance"},
		{"nova book a1", ModePublic, MalformedParam, "a1"},
		{"nova book a-1 b-2", ModePublic, MalformedParam, "a-1 b-2"},
		{"", ModeAdmin, TooFewTokens, ""},
		{"unbook", ModeAdmin, TooFewTokens, ""},
		{"unbook A", ModeAdmin, MalformedParam, "A"},
		{"add", ModeAdmin, TooFewTokens, ""},
		{"db", ModeAdmin, UnknownVerb, "db"},
	}
	for _, c := range cases {
		_, err := Parse(c.line, c.mode)
		var perr *ParseError
		require.True(t, errors.As(err, &perr), "%q: %v", c.line, err)
		assert.Equal(t, c.reason, perr.Reason, c.line)
		assert.Equal(t, c.token, perr.Token, c.line)
		assert.Equal(t, c.mode, perr.Mode, c.line)
	}
}

func TestKindTiers(t *testing.T) {
	for _, k := range []Kind{KindNow, KindNext, KindColor, KindLocation, KindBook, KindClean} {
		assert.Equal(t, TierVoiced, k.Tier(), k.String())
		assert.False(t, k.Admin())
	}
	for _, k := range []Kind{KindReload, KindUnbook, KindNewDay, KindRequireVoice, KindAllowEveryone, KindList, KindAddTracks, KindDelTracks, KindCleanTracks} {
		assert.Equal(t, TierOperator, k.Tier(), k.String())
		assert.True(t, k.Admin())
	}
	assert.Equal(t, TierPublic, Kind(0).Tier())
}
