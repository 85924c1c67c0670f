package controller

import (
	"time"
)

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// ChatMessage is one entry of the chat log. Messages live for the session
// only and are never removed.
type ChatMessage struct {
	ID        string
	Text      string
	Role      Role
	Timestamp time.Time
}

// Clock renders the timestamp the way the chat log displays it.
func (m ChatMessage) Clock() string {
	return m.Timestamp.Format("15:04")
}

// UploadState is the client's view of whether the server holds a PDF. It is
// only ever assigned from a status poll.
type UploadState int

const (
	UploadUnknown UploadState = iota
	UploadNone
	UploadPresent
)

func (s UploadState) String() string {
	switch s {
	case UploadNone:
		return "none"
	case UploadPresent:
		return "uploaded"
	default:
		return "unknown"
	}
}

type Banner struct {
	Text    string
	Success bool
}

func (b Banner) Empty() bool {
	return b.Text == ""
}

type Op string

const (
	OpUpload Op = "upload"
	OpDelete Op = "delete"
	OpChat   Op = "chat"
	OpStatus Op = "status"
)

// State is the whole UI state. It is owned by a Controller and only
// mutated from Controller methods running on the UI loop.
type State struct {
	Banner   Banner
	Upload   UploadState
	Filename string
	Messages []ChatMessage

	FileInput string
	ChatInput string

	inFlight map[Op]int
}

func newState() *State {
	return &State{inFlight: map[Op]int{}}
}

// DeleteVisible reports whether the delete control is shown.
func (s *State) DeleteVisible() bool {
	return s.Upload == UploadPresent
}

func (s *State) InFlight(op Op) int {
	return s.inFlight[op]
}

// Busy reports whether any request is outstanding.
func (s *State) Busy() bool {
	for _, n := range s.inFlight {
		if n > 0 {
			return true
		}
	}
	return false
}

// LastAnswer returns the text of the most recent bot message.
func (s *State) LastAnswer() (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleBot {
			return s.Messages[i].Text, true
		}
	}
	return "", false
}

type statusChange struct {
	banner Banner
	// setUpload is only true for status poll results and initialization.
	setUpload bool
	upload    UploadState
	filename  string
}

// renderStatus is the only writer of the banner and the upload state.
func (s *State) renderStatus(ch statusChange) {
	s.Banner = ch.banner
	if !ch.setUpload {
		return
	}
	s.Upload = ch.upload
	if ch.upload == UploadPresent {
		s.Filename = ch.filename
	} else {
		s.Filename = ""
	}
}
