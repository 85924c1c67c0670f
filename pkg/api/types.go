package api

import "fmt"

// StatusUploaded is the /pdf-status value reported while a PDF is stored.
const StatusUploaded = "uploaded"

// MessageResponse is returned by /upload and /delete-pdf.
type MessageResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

type ChatRequest struct {
	Question string `json:"question"`
}

type ChatResponse struct {
	Answer string `json:"answer,omitempty"`
}

// StatusResponse is returned by /pdf-status. Filename is only set when
// Status is StatusUploaded.
type StatusResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename,omitempty"`
}

func (s *StatusResponse) Uploaded() bool {
	return s != nil && s.Status == StatusUploaded
}

type errorBody struct {
	Error string `json:"error"`
}

// StatusError is returned for every non-2xx response. Detail carries the
// server's `error` field when the body had one.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Server responded with status: %d", e.Code)
}
