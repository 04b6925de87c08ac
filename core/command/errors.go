package command

import "fmt"

// Reason classifies a ParseError.
type Reason int

const (
	TooFewTokens Reason = iota + 1
	UnknownVerb
	MalformedParam
)

func (r Reason) String() string {
	switch r {
	case TooFewTokens:
		return "too few tokens"
	case UnknownVerb:
		return "unknown verb"
	case MalformedParam:
		return "malformed parameter"
	default:
		return "unknown"
	}
}

// ParseError reports malformed command text.
type ParseError struct {
	Reason Reason
	Mode   Mode
	// Token is the offending word, when there is one.
	Token string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return e.Reason.String()
	}
	return fmt.Sprintf("%s '%s'", e.Reason, e.Token)
}

// Unauthorized reports that the sender lacks the required tier.
type Unauthorized struct {
	Required Tier
}

func (e *Unauthorized) Error() string {
	return fmt.Sprintf("requires %s privilege", e.Required)
}
