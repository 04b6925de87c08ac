package command

import (
	"strings"

	"github.com/kilianp07/ptgbot/core/schedule"
)

// Parse reads one command line whose sigil has already been removed.
//
// Public lines are "<track> <verb> [params]", admin lines are
// "<name> [params]". Words used for matching are lower-cased; free text
// keeps its case and loses one pair of surrounding double quotes.
func Parse(line string, mode Mode) (Command, error) {
	raw := strings.Fields(line)
	words := make([]string, len(raw))
	for i, w := range raw {
		words[i] = strings.ToLower(w)
	}
	if mode == ModeAdmin {
		return parseAdmin(raw, words)
	}
	return parsePublic(raw, words)
}

func parsePublic(raw, words []string) (Command, error) {
	if len(words) < 2 {
		return Command{}, &ParseError{Reason: TooFewTokens, Mode: ModePublic}
	}
	kind, ok := publicVerbs[words[1]]
	if !ok {
		return Command{}, &ParseError{Reason: UnknownVerb, Mode: ModePublic, Token: words[1]}
	}
	cmd := Command{Kind: kind, Track: words[0]}
	params := raw[2:]
	switch kind {
	case KindNow, KindNext, KindColor, KindLocation:
		text := unquote(strings.Join(params, " "))
		if text == "" {
			return Command{}, &ParseError{Reason: TooFewTokens, Mode: ModePublic}
		}
		cmd.Text = text
	case KindBook:
		if len(params) == 0 {
			return Command{}, &ParseError{Reason: TooFewTokens, Mode: ModePublic}
		}
		room, slot, ok := schedule.ParseRef(words[2])
		if !ok || len(params) > 1 {
			return Command{}, &ParseError{Reason: MalformedParam, Mode: ModePublic, Token: strings.Join(params, " ")}
		}
		cmd.Room, cmd.Slot = room, slot
	}
	return cmd, nil
}

func parseAdmin(raw, words []string) (Command, error) {
	if len(words) < 1 {
		return Command{}, &ParseError{Reason: TooFewTokens, Mode: ModeAdmin}
	}
	kind, ok := adminNames[words[0]]
	if !ok {
		return Command{}, &ParseError{Reason: UnknownVerb, Mode: ModeAdmin, Token: words[0]}
	}
	cmd := Command{Kind: kind}
	params := words[1:]
	switch kind {
	case KindUnbook:
		if len(params) == 0 {
			return Command{}, &ParseError{Reason: TooFewTokens, Mode: ModeAdmin}
		}
		room, slot, ok := schedule.ParseRef(params[0])
		if !ok || len(params) > 1 {
			return Command{}, &ParseError{Reason: MalformedParam, Mode: ModeAdmin, Token: strings.Join(raw[1:], " ")}
		}
		cmd.Room, cmd.Slot = room, slot
	case KindAddTracks, KindDelTracks, KindCleanTracks:
		if len(params) == 0 {
			return Command{}, &ParseError{Reason: TooFewTokens, Mode: ModeAdmin}
		}
		cmd.Args = params
	}
	return cmd, nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
