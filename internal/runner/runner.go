package runner

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"nano-banana-cli/internal/credentials"
	"nano-banana-cli/internal/gemini"
	"nano-banana-cli/internal/output"
	"nano-banana-cli/internal/result"
)

// PhotoSender delivers a written image somewhere besides disk.
type PhotoSender interface {
	SendPhoto(chatID int64, data []byte, mimeType string, caption string) error
}

type Options struct {
	HTTPClient       *http.Client
	GeminiBaseURL    string
	GeminiAPIVersion string
	// Sender is optional; nil disables delivery.
	Sender PhotoSender
	Logger *slog.Logger
	Now    func() time.Time
}

type Request struct {
	Root           string
	Prompt         string
	Model          string
	Out            string
	TelegramChatID int64
}

type Runner struct {
	httpClient       *http.Client
	geminiBaseURL    string
	geminiAPIVersion string
	sender           PhotoSender
	logger           *slog.Logger
	now              func() time.Time
}

func New(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Runner{
		httpClient:       opts.HTTPClient,
		geminiBaseURL:    opts.GeminiBaseURL,
		geminiAPIVersion: opts.GeminiAPIVersion,
		sender:           opts.Sender,
		logger:           logger,
		now:              now,
	}
}

// Run performs one generation and never returns without a Result.
func (r *Runner) Run(ctx context.Context, req Request) result.Result {
	apiKey := credentials.Resolve(req.Root)
	if apiKey == "" {
		return result.Fail(result.New(result.KindMissingAPIKey, "Set GEMINI_API_KEY or credentials/gemini_api_key"))
	}

	model := req.Model
	if model == "" {
		model = gemini.DefaultModel
	}

	outPath := req.Out
	if outPath == "" {
		outPath = output.DefaultPath(req.Root, r.now())
	}

	gem := gemini.New(gemini.Options{
		APIKey:     apiKey,
		BaseURL:    r.geminiBaseURL,
		APIVersion: r.geminiAPIVersion,
		HTTPClient: r.httpClient,
		Logger:     r.logger,
	})

	start := time.Now()
	img, err := gem.GenerateImage(ctx, model, req.Prompt)
	if err != nil {
		r.logger.Warn("generate failed", "model", model, "err", err)
		return result.Fail(err)
	}
	r.logger.Info("image generated", "model", model, "bytes", len(img.Data), "dur_ms", time.Since(start).Milliseconds())

	written, err := output.Write(outPath, img.Data)
	if err != nil {
		return result.Fail(result.Wrap(result.KindWriteFailed, err))
	}

	success := result.Success{
		Model:      model,
		OutputPath: outPath,
		Bytes:      written,
		Text:       img.Text,
		MimeType:   img.MimeType,
	}

	if r.sender != nil && req.TelegramChatID != 0 {
		if err := r.sender.SendPhoto(req.TelegramChatID, img.Data, img.MimeType, req.Prompt); err != nil {
			r.logger.Warn("telegram delivery failed", "chat_id", req.TelegramChatID, "err", err)
			success.DeliveryError = err.Error()
		} else {
			success.TelegramChatID = req.TelegramChatID
		}
	}

	return result.Ok(success)
}
