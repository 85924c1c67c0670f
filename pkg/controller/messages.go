package controller

import (
	"github.com/go-go-golems/pdfchat/pkg/api"
)

// Result messages produced by the controller's commands. The UI loop hands
// them back to Controller.Update.

type UploadFinishedMsg struct {
	Response *api.MessageResponse
	Err      error
}

type DeleteFinishedMsg struct {
	Response *api.MessageResponse
	Err      error
}

type ChatFinishedMsg struct {
	Question string
	Response *api.ChatResponse
	Err      error
}

type StatusFinishedMsg struct {
	Response *api.StatusResponse
	Err      error
}

// BannerExpiredMsg fires once the banner delay after an upload or delete
// settled.
type BannerExpiredMsg struct {
	Op Op
}
