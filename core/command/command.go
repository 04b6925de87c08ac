// Package command turns channel text into typed commands and decides
// whether a sender may issue them.
package command

// Mode selects the grammar: public track commands or admin commands.
type Mode int

const (
	ModePublic Mode = iota
	ModeAdmin
)

// Kind identifies a command.
type Kind int

const (
	KindNow Kind = iota + 1
	KindNext
	KindColor
	KindLocation
	KindBook
	KindClean
	KindReload
	KindUnbook
	KindNewDay
	KindRequireVoice
	KindAllowEveryone
	KindList
	KindAddTracks
	KindDelTracks
	KindCleanTracks
)

var kindNames = map[Kind]string{
	KindNow:           "now",
	KindNext:          "next",
	KindColor:         "color",
	KindLocation:      "location",
	KindBook:          "book",
	KindClean:         "clean",
	KindReload:        "reload",
	KindUnbook:        "unbook",
	KindNewDay:        "newday",
	KindRequireVoice:  "requirevoice",
	KindAllowEveryone: "alloweveryone",
	KindList:          "list",
	KindAddTracks:     "add",
	KindDelTracks:     "del",
	KindCleanTracks:   "clean",
}

// publicVerbs and adminNames are the words accepted in each mode.
var publicVerbs = map[string]Kind{
	"now":      KindNow,
	"next":     KindNext,
	"color":    KindColor,
	"location": KindLocation,
	"book":     KindBook,
	"clean":    KindClean,
}

var adminNames = map[string]Kind{
	"reload":        KindReload,
	"unbook":        KindUnbook,
	"newday":        KindNewDay,
	"requirevoice":  KindRequireVoice,
	"alloweveryone": KindAllowEveryone,
	"list":          KindList,
	"add":           KindAddTracks,
	"del":           KindDelTracks,
	"clean":         KindCleanTracks,
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Admin reports whether k belongs to the admin grammar.
func (k Kind) Admin() bool { return k >= KindReload }

// Tier returns the privilege required to issue k.
func (k Kind) Tier() Tier {
	switch k {
	case KindNow, KindNext, KindColor, KindLocation, KindBook, KindClean:
		return TierVoiced
	case KindReload, KindUnbook, KindNewDay, KindRequireVoice, KindAllowEveryone,
		KindList, KindAddTracks, KindDelTracks, KindCleanTracks:
		return TierOperator
	default:
		return TierPublic
	}
}

// Command is a parsed channel command.
type Command struct {
	Kind Kind
	// Track is the subject of a public command.
	Track string
	// Text is the free-form value of now, next, color and location, with
	// its original case.
	Text string
	// Room and Slot are set for book and unbook.
	Room string
	Slot string
	// Args holds the track names of add, del and clean.
	Args []string
}
