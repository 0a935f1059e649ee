package result

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
)

type Kind string

const (
	KindMissingAPIKey  Kind = "missing_api_key"
	KindHTTPError      Kind = "http_error"
	KindRequestFailed  Kind = "request_failed"
	KindInvalidJSON    Kind = "invalid_json"
	KindProviderError  Kind = "provider_error"
	KindNoImageData    Kind = "no_image_data"
	KindDecodeFailed   Kind = "decode_failed"
	KindWriteFailed    Kind = "write_failed"
)

// Error is a failure that maps onto one reported error kind.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return string(e.Kind) + " (" + strconv.Itoa(e.Status) + "): " + e.Message
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an Error of the given kind whose message is err's text.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

// IsKind reports whether any error in err's chain is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var rErr *Error
	return errors.As(err, &rErr) && rErr.Kind == kind
}

// Result is the outcome of one invocation. Exactly one of Success and Failure
// is set.
type Result struct {
	Success *Success
	Failure *Error
}

type Success struct {
	Model      string
	OutputPath string
	Bytes      int
	Text       string
	MimeType   string

	TelegramChatID int64
	DeliveryError  string
}

func Ok(s Success) Result {
	return Result{Success: &s}
}

// Fail converts err into a failure Result. Errors outside the reported kinds
// are surfaced as request_failed.
func Fail(err error) Result {
	var rErr *Error
	if errors.As(err, &rErr) {
		return Result{Failure: rErr}
	}
	if err == nil {
		err = errors.New("unknown failure")
	}
	return Result{Failure: Wrap(KindRequestFailed, err)}
}

func (r Result) OK() bool {
	return r.Success != nil && r.Failure == nil
}

func (r Result) ExitCode() int {
	if r.OK() {
		return 0
	}
	return 1
}

type successLine struct {
	OK             bool   `json:"ok"`
	Model          string `json:"model"`
	OutputPath     string `json:"output_path"`
	Bytes          int    `json:"bytes"`
	Text           string `json:"text"`
	MimeType       string `json:"mime_type,omitempty"`
	TelegramChatID int64  `json:"telegram_chat_id,omitempty"`
	DeliveryError  string `json:"delivery_error,omitempty"`
}

type failureLine struct {
	OK      bool   `json:"ok"`
	Error   Kind   `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Details any    `json:"details,omitempty"`
}

// MarshalJSON renders the single-line object written to stdout.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.OK() {
		s := r.Success
		return marshal(successLine{
			OK:             true,
			Model:          s.Model,
			OutputPath:     s.OutputPath,
			Bytes:          s.Bytes,
			Text:           s.Text,
			MimeType:       s.MimeType,
			TelegramChatID: s.TelegramChatID,
			DeliveryError:  s.DeliveryError,
		})
	}

	f := r.Failure
	if f == nil {
		f = New(KindRequestFailed, "empty result")
	}
	return marshal(failureLine{
		OK:      false,
		Error:   f.Kind,
		Message: f.Message,
		Status:  f.Status,
		Details: f.Details,
	})
}

// Write encodes r as one JSON line on w.
func Write(w io.Writer, r Result) error {
	line, err := r.MarshalJSON()
	if err != nil {
		line, _ = Fail(err).MarshalJSON()
	}
	line = append(line, '\n')
	_, err = w.Write(line)
	return err
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
