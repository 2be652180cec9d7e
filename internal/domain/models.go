package domain

import "fmt"

// QuestionKind tags which playtesting variant a question or session belongs to.
type QuestionKind int

const (
	KindTossup QuestionKind = iota + 1
	KindBonus
)

func (k QuestionKind) String() string {
	switch k {
	case KindTossup:
		return "tossup"
	case KindBonus:
		return "bonus"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Label is the capitalised form used in buttons and headings.
func (k QuestionKind) Label() string {
	if k == KindBonus {
		return "Bonus"
	}
	return "Tossup"
}

// Code is the single-letter form stored with packet questions.
func (k QuestionKind) Code() string {
	if k == KindBonus {
		return "B"
	}
	return "T"
}

// KindFromCode is the inverse of Code.
func KindFromCode(code string) QuestionKind {
	if code == "B" {
		return KindBonus
	}
	return KindTossup
}

// SessionLink ties a playtesting session back to the posted question and its play button.
type SessionLink struct {
	ServerID        string `json:"serverId"`
	ChannelID       string `json:"channelId"`
	ButtonMessageID string `json:"buttonMessageId"`
	QuestionID      string `json:"questionId"`
	QuestionURL     string `json:"questionUrl"`
	AuthorID        string `json:"authorId"`
	AuthorName      string `json:"authorName"`
}

// TossupProgress is the tossup payload of a session.
type TossupProgress struct {
	Parts  []string `json:"parts"`
	Answer string   `json:"answer"`
	Index  int      `json:"index"`
	Buzzed bool     `json:"buzzed"`
	Grade  bool     `json:"grade"`
}

// PartResult is the graded outcome of a single bonus part.
type PartResult struct {
	Points int    `json:"points"`
	Passed bool   `json:"passed"`
	Note   string `json:"note,omitempty"`
}

// BonusProgress is the bonus payload of a session.
type BonusProgress struct {
	Leadin       string       `json:"leadin"`
	Parts        []string     `json:"parts"`
	Answers      []string     `json:"answers"`
	Difficulties []string     `json:"difficulties"`
	Index        int          `json:"index"`
	Grade        bool         `json:"grade"`
	Results      []PartResult `json:"results"`
}

// Session is the single live reading a participant owns. Exactly one of Tossup
// or Bonus is set, matching Kind.
type Session struct {
	Kind          QuestionKind    `json:"kind"`
	ParticipantID string          `json:"participantId"`
	Link          SessionLink     `json:"link"`
	Tossup        *TossupProgress `json:"tossup,omitempty"`
	Bonus         *BonusProgress  `json:"bonus,omitempty"`
}

// BuzzResult is one persisted tossup outcome.
type BuzzResult struct {
	ServerID           string
	QuestionID         string
	AuthorID           string
	UserID             string
	ClueIndex          int
	CharactersRevealed int
	Value              int
	Note               string
}

// BonusPartResult is one persisted bonus part outcome. Part is 1-indexed.
type BonusPartResult struct {
	ServerID   string
	QuestionID string
	AuthorID   string
	UserID     string
	Part       int
	Value      int
	Note       string
}

// Buzz is the read model the tossup digest is computed from.
type Buzz struct {
	ClueIndex          int
	Value              int
	CharactersRevealed int
}

// BonusOutcome is the read model the bonus digest is computed from.
type BonusOutcome struct {
	UserID     string
	Part       int
	Value      int
	Difficulty string
}

// ResultsThread identifies the results thread of a question and its summary message.
type ResultsThread struct {
	ThreadID         string
	SummaryMessageID string
}

// TossupRecord registers a tossup so results can be joined against it.
type TossupRecord struct {
	QuestionID      string
	ServerID        string
	AuthorID        string
	TotalCharacters int
	Category        string
	Answer          string
}

// BonusPartRecord is one registered bonus part.
type BonusPartRecord struct {
	Part       int
	Difficulty string
	Answer     string
}

// BonusRecord registers a bonus and its three parts.
type BonusRecord struct {
	QuestionID string
	ServerID   string
	AuthorID   string
	Category   string
	Parts      []BonusPartRecord
}

// PacketQuestion is a question read as part of a named packet, echoed into the
// packet's echo channel where its reaction tally is published.
type PacketQuestion struct {
	ServerID      string
	PacketName    string
	QuestionID    string
	ChannelID     string
	EchoChannelID string
	EchoMessageID string
	Kind          QuestionKind
	Number        string
	Category      string
	Answers       string
	QuestionURL   string
}

// ResultExport bundles every recorded result of a server.
type ResultExport struct {
	Buzzes     []BuzzResult
	BonusParts []BonusPartResult
}

// Digest is a rendered results summary for one question.
type Digest struct {
	QuestionID string       `json:"questionId"`
	Kind       QuestionKind `json:"kind"`
	Text       string       `json:"text"`
}

// ChannelType classifies configured server channels.
type ChannelType int

const (
	ChannelPlaytesting ChannelType = iota + 1
	ChannelReacts
	ChannelEcho
)

// ServerChannel is one configured channel of a server.
type ServerChannel struct {
	ServerID        string
	ChannelID       string
	ResultChannelID string
	Type            ChannelType
}
