package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/pdfchat/pkg/api"
)

// DefaultBannerDelay is how long an upload or delete result stays on the
// banner before it is cleared and the status is polled again.
const DefaultBannerDelay = 3 * time.Second

const (
	bannerSelectFile = "❌ Please select a PDF file."
	bannerUploading  = "⏳ Uploading..."
	bannerDeleting   = "⏳ Deleting..."
)

// Fallback texts for responses that lack the optional field.
const (
	DefaultUploadedMessage = "PDF uploaded successfully!"
	DefaultDeletedMessage  = "PDF deleted successfully!"
	DefaultAnswer          = "No response from AI."
)

// Backend is the server surface the controller drives. *api.Client
// implements it.
type Backend interface {
	UploadFile(ctx context.Context, path string) (*api.MessageResponse, error)
	DeletePDF(ctx context.Context) (*api.MessageResponse, error)
	Chat(ctx context.Context, question string) (*api.ChatResponse, error)
	Status(ctx context.Context) (*api.StatusResponse, error)
}

var _ Backend = (*api.Client)(nil)

// Controller wires user actions to server calls and folds the results back
// into State. Operations return tea.Cmds that perform the request off the
// UI loop; the resulting messages must be passed to Update.
type Controller struct {
	ctx         context.Context
	backend     Backend
	state       *State
	bannerDelay time.Duration
	dedupe      bool
	now         func() time.Time
	newID       func() string
}

type Option func(*Controller)

func WithBannerDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.bannerDelay = d
		}
	}
}

// WithDedupe ignores upload and delete actions while one of the same kind
// is still outstanding.
func WithDedupe(enabled bool) Option {
	return func(c *Controller) {
		c.dedupe = enabled
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

func New(ctx context.Context, backend Backend, options ...Option) *Controller {
	c := &Controller{
		ctx:         ctx,
		backend:     backend,
		state:       newState(),
		bannerDelay: DefaultBannerDelay,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Controller) State() *State {
	return c.state
}

func (c *Controller) SetFileInput(path string) {
	c.state.FileInput = path
}

func (c *Controller) SetChatInput(text string) {
	c.state.ChatInput = text
}

// Initialize hides the delete control and polls the server once.
func (c *Controller) Initialize() tea.Cmd {
	c.state.renderStatus(statusChange{banner: c.state.Banner, setUpload: true, upload: UploadUnknown})
	return c.CheckPDFStatus()
}

func (c *Controller) UploadPDF() tea.Cmd {
	path := strings.TrimSpace(c.state.FileInput)
	if path == "" {
		c.state.renderStatus(statusChange{banner: Banner{Text: bannerSelectFile}})
		return nil
	}
	if expanded, err := homedir.Expand(path); err == nil {
		path = expanded
	}
	if !c.begin(OpUpload) {
		return nil
	}
	c.state.renderStatus(statusChange{banner: Banner{Text: bannerUploading}})
	log.Debug().Str("op", string(OpUpload)).Str("path", path).Msg("uploading pdf")

	ctx, backend := c.ctx, c.backend
	return func() tea.Msg {
		resp, err := backend.UploadFile(ctx, path)
		return UploadFinishedMsg{Response: resp, Err: err}
	}
}

// DeletePDF has no precondition; the server answers whether or not a PDF is
// stored.
func (c *Controller) DeletePDF() tea.Cmd {
	if !c.begin(OpDelete) {
		return nil
	}
	c.state.renderStatus(statusChange{banner: Banner{Text: bannerDeleting}})
	log.Debug().Str("op", string(OpDelete)).Msg("deleting pdf")

	ctx, backend := c.ctx, c.backend
	return func() tea.Msg {
		resp, err := backend.DeletePDF(ctx)
		return DeleteFinishedMsg{Response: resp, Err: err}
	}
}

// SendMessage appends the user's message before the request is issued.
func (c *Controller) SendMessage() tea.Cmd {
	question := strings.TrimSpace(c.state.ChatInput)
	if question == "" {
		return nil
	}
	c.appendMessage(RoleUser, question)
	c.state.ChatInput = ""
	c.begin(OpChat)
	log.Debug().Str("op", string(OpChat)).Int("length", len(question)).Msg("sending chat message")

	ctx, backend := c.ctx, c.backend
	return func() tea.Msg {
		resp, err := backend.Chat(ctx, question)
		return ChatFinishedMsg{Question: question, Response: resp, Err: err}
	}
}

// CheckPDFStatus polls the server. Its result is the only thing that moves
// the upload state.
func (c *Controller) CheckPDFStatus() tea.Cmd {
	c.begin(OpStatus)
	ctx, backend := c.ctx, c.backend
	return func() tea.Msg {
		resp, err := backend.Status(ctx)
		return StatusFinishedMsg{Response: resp, Err: err}
	}
}

// Update folds a result message into the state. Messages it does not know
// are ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case UploadFinishedMsg:
		if msg.Err == nil {
			c.state.FileInput = ""
		}
		return c.settle(OpUpload, msg.Response, msg.Err, DefaultUploadedMessage)

	case DeleteFinishedMsg:
		return c.settle(OpDelete, msg.Response, msg.Err, DefaultDeletedMessage)

	case ChatFinishedMsg:
		c.finish(OpChat)
		if msg.Err != nil {
			log.Error().Err(msg.Err).Str("op", string(OpChat)).Msg("chat request failed")
			c.appendMessage(RoleBot, ErrorText(msg.Err))
			return nil
		}
		answer := DefaultAnswer
		if msg.Response != nil && msg.Response.Answer != "" {
			answer = msg.Response.Answer
		}
		c.appendMessage(RoleBot, answer)
		return nil

	case StatusFinishedMsg:
		c.finish(OpStatus)
		c.applyStatus(msg.Response, msg.Err)
		return nil

	case BannerExpiredMsg:
		c.state.renderStatus(statusChange{})
		return c.CheckPDFStatus()
	}
	return nil
}

func (c *Controller) settle(op Op, resp *api.MessageResponse, err error, fallback string) tea.Cmd {
	c.finish(op)
	if err != nil {
		log.Error().Err(err).Str("op", string(op)).Msg("request failed")
		c.state.renderStatus(statusChange{banner: Banner{Text: ErrorText(err)}})
	} else {
		text := fallback
		if resp != nil && resp.Message != "" {
			text = resp.Message
		}
		log.Info().Str("op", string(op)).Str("message", text).Msg("request succeeded")
		c.state.renderStatus(statusChange{banner: Banner{Text: SuccessText(text), Success: true}})
	}
	return c.expireBanner(op)
}

func (c *Controller) expireBanner(op Op) tea.Cmd {
	return tea.Tick(c.bannerDelay, func(time.Time) tea.Msg {
		return BannerExpiredMsg{Op: op}
	})
}

func (c *Controller) applyStatus(resp *api.StatusResponse, err error) {
	switch {
	case err != nil:
		log.Warn().Err(err).Str("op", string(OpStatus)).Msg("status check failed")
		c.state.renderStatus(statusChange{
			banner:    Banner{Text: StatusErrorText(err)},
			setUpload: true,
			upload:    UploadNone,
		})
	case resp.Uploaded():
		log.Debug().Str("filename", resp.Filename).Msg("pdf is uploaded")
		c.state.renderStatus(statusChange{
			banner:    Banner{Text: UploadedText(resp.Filename), Success: true},
			setUpload: true,
			upload:    UploadPresent,
			filename:  resp.Filename,
		})
	default:
		c.state.renderStatus(statusChange{setUpload: true, upload: UploadNone})
	}
}

func (c *Controller) appendMessage(role Role, text string) {
	c.state.Messages = append(c.state.Messages, ChatMessage{
		ID:        c.newID(),
		Text:      text,
		Role:      role,
		Timestamp: c.now(),
	})
}

// begin records an outstanding request. It returns false when dedupe is on
// and an upload or delete of the same kind is already running.
func (c *Controller) begin(op Op) bool {
	if c.dedupe && (op == OpUpload || op == OpDelete) && c.state.inFlight[op] > 0 {
		log.Debug().Str("op", string(op)).Msg("ignoring duplicate request")
		return false
	}
	c.state.inFlight[op]++
	return true
}

func (c *Controller) finish(op Op) {
	if c.state.inFlight[op] > 0 {
		c.state.inFlight[op]--
	}
}

// UserMessage turns an error into the text shown to the user: the status
// line for HTTP errors, the underlying cause otherwise.
func UserMessage(err error) string {
	var se *api.StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	return errors.Cause(err).Error()
}

func ErrorText(err error) string {
	return "❌ Error: " + UserMessage(err)
}

func StatusErrorText(err error) string {
	return "❌ Error checking PDF status: " + UserMessage(err)
}

func SuccessText(message string) string {
	return "✅ " + message
}

func UploadedText(filename string) string {
	return fmt.Sprintf("✅ PDF '%s' is uploaded", filename)
}
