package result

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWriteSuccessLine(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, Ok(Success{
		Model:      "gemini-2.5-flash-image",
		OutputPath: "/tmp/x.png",
		Bytes:      68,
		Text:       "a <cat>",
		MimeType:   "image/png",
	}))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	line := buf.String()
	if strings.Count(line, "\n") != 1 || !strings.HasSuffix(line, "\n") {
		t.Fatalf("expected exactly one line, got %q", line)
	}
	if !strings.Contains(line, "a <cat>") {
		t.Fatalf("expected unescaped text, got %q", line)
	}

	var obj map[string]any
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if obj["ok"] != true || obj["model"] != "gemini-2.5-flash-image" || obj["output_path"] != "/tmp/x.png" {
		t.Fatalf("unexpected object: %v", obj)
	}
	if obj["bytes"].(float64) != 68 {
		t.Fatalf("bytes = %v", obj["bytes"])
	}
	if _, ok := obj["telegram_chat_id"]; ok {
		t.Fatalf("telegram_chat_id should be omitted: %v", obj)
	}
}

func TestWriteSuccessKeepsEmptyText(t *testing.T) {
	var buf bytes.Buffer
	_ = Write(&buf, Ok(Success{Model: "m", OutputPath: "p", Bytes: 1}))

	var obj map[string]any
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if text, ok := obj["text"]; !ok || text != "" {
		t.Fatalf("expected empty text field, got %v", obj)
	}
}

func TestWriteFailureLineCompactsDetails(t *testing.T) {
	details := json.RawMessage("{\n  \"candidates\": []\n}")
	r := Fail(&Error{Kind: KindNoImageData, Message: "No inline image returned", Details: details})

	var buf bytes.Buffer
	if err := Write(&buf, r); err != nil {
		t.Fatalf("write: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected single line, got %q", buf.String())
	}

	var obj struct {
		OK      bool           `json:"ok"`
		Error   string         `json:"error"`
		Message string         `json:"message"`
		Status  *int           `json:"status"`
		Details map[string]any `json:"details"`
	}
	if err := json.Unmarshal(buf.Bytes(), &obj); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if obj.OK || obj.Error != "no_image_data" || obj.Message == "" {
		t.Fatalf("unexpected failure line: %+v", obj)
	}
	if obj.Status != nil {
		t.Fatalf("status should be omitted, got %d", *obj.Status)
	}
	if _, ok := obj.Details["candidates"]; !ok {
		t.Fatalf("details lost: %v", obj.Details)
	}
	if r.ExitCode() != 1 {
		t.Fatalf("exit code = %d", r.ExitCode())
	}
}

func TestFailUnwrapsWrappedError(t *testing.T) {
	inner := &Error{Kind: KindHTTPError, Message: "denied", Status: 403}
	r := Fail(fmt.Errorf("generate: %w", inner))
	if r.Failure != inner {
		t.Fatalf("expected original error, got %+v", r.Failure)
	}
	if r.Failure.Error() != "http_error (403): denied" {
		t.Fatalf("unexpected Error(): %q", r.Failure.Error())
	}
}

func TestFailPlainErrorIsRequestFailed(t *testing.T) {
	cause := errors.New("boom")
	r := Fail(cause)
	if r.Failure.Kind != KindRequestFailed || r.Failure.Message != "boom" {
		t.Fatalf("unexpected failure: %+v", r.Failure)
	}
	if !errors.Is(r.Failure, cause) {
		t.Fatalf("cause not wrapped")
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("x: %w", New(KindDecodeFailed, "bad"))
	if !IsKind(err, KindDecodeFailed) {
		t.Fatalf("expected decode_failed")
	}
	if IsKind(err, KindNoImageData) {
		t.Fatalf("unexpected match")
	}
	if IsKind(errors.New("plain"), KindDecodeFailed) {
		t.Fatalf("plain error matched")
	}
}

func TestExitCodes(t *testing.T) {
	if got := Ok(Success{}).ExitCode(); got != 0 {
		t.Fatalf("success exit = %d", got)
	}
	if got := (Result{}).ExitCode(); got != 1 {
		t.Fatalf("empty result exit = %d", got)
	}
}
