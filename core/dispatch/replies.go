package dispatch

import (
	"fmt"

	"github.com/kilianp07/ptgbot/core/command"
)

func (d *Dispatcher) usage(mode command.Mode) []string {
	var lines []string
	if mode == command.ModeAdmin {
		lines = append(lines, fmt.Sprintf("Format is '%sCOMMAND [PARAMETERS]'", d.cfg.AdminSigil))
	} else {
		lines = append(lines, fmt.Sprintf("Format is '%sTRACK COMMAND [PARAMETERS]'", d.cfg.PublicSigil))
	}
	if d.cfg.DocURL != "" {
		lines = append(lines, "See doc at: "+d.cfg.DocURL)
	}
	return lines
}

func (d *Dispatcher) parseFailure(nick string, perr *command.ParseError) result {
	res := result{outcome: OutcomeParseError, err: perr}
	var first string
	switch perr.Reason {
	case command.UnknownVerb:
		res.kind = perr.Token
		res.outcome = OutcomeUnknown
		if perr.Mode == command.ModeAdmin {
			first = fmt.Sprintf("%s: unknown command '%s'", nick, perr.Token)
		} else {
			first = fmt.Sprintf("%s: unknown directive '%s'", nick, perr.Token)
		}
	case command.MalformedParam:
		first = fmt.Sprintf("%s: malformed parameter '%s', expected ROOM-SLOT", nick, perr.Token)
	default:
		first = fmt.Sprintf("%s: Incorrect number of arguments", nick)
	}
	res.replies = append([]string{first}, d.usage(perr.Mode)...)
	return res
}

func unauthorizedLine(nick string, required command.Tier) string {
	if required == command.TierOperator {
		return fmt.Sprintf("%s: Need op for admin commands", nick)
	}
	return fmt.Sprintf("%s: Need voice to issue commands", nick)
}
