package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/pdfchat/pkg/controller"
)

// chatLog renders the message list. Bot answers go through glamour and are
// cached per message, since a rendered answer never changes for a given
// width.
type chatLog struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newChatLog(style string) *chatLog {
	return &chatLog{style: style, cache: map[string]string{}}
}

func (l *chatLog) SetWidth(width int) {
	if width == l.width && l.renderer != nil {
		return
	}
	l.width = width
	l.cache = map[string]string{}

	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(l.style),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		log.Warn().Err(err).Str("style", l.style).Msg("could not create markdown renderer, answers are shown as plain text")
		l.renderer = nil
		return
	}
	l.renderer = r
}

func (l *chatLog) Render(messages []controller.ChatMessage) string {
	if len(messages) == 0 {
		return noticeStyle.Render("Upload a PDF and ask a question about it.")
	}
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, l.renderMessage(m))
	}
	return strings.Join(parts, "\n\n")
}

func (l *chatLog) renderMessage(m controller.ChatMessage) string {
	var header, body string
	switch m.Role {
	case controller.RoleUser:
		header = userLabelStyle.Render("You")
		body = userTextStyle.Width(l.textWidth()).Render(m.Text)
	default:
		header = botLabelStyle.Render("PDF Bot")
		body = l.renderAnswer(m)
	}
	return header + " " + timestampStyle.Render(m.Clock()) + "\n" + body
}

func (l *chatLog) renderAnswer(m controller.ChatMessage) string {
	if cached, ok := l.cache[m.ID]; ok {
		return cached
	}
	out := botTextStyle.Width(l.textWidth()).Render(m.Text)
	if l.renderer != nil {
		md, err := l.renderer.Render(m.Text)
		if err != nil {
			log.Debug().Err(err).Str("id", m.ID).Msg("markdown render failed")
		} else {
			out = strings.TrimRight(md, "\n")
		}
	}
	l.cache[m.ID] = out
	return out
}

func (l *chatLog) textWidth() int {
	if l.width <= 4 {
		return 0
	}
	return l.width - 2
}
