package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MikeSquared-Agency/scribe/internal/draft"
	"github.com/MikeSquared-Agency/scribe/internal/events"
)

func (p *Processor) handleText(ctx context.Context, t events.Text) {
	text := strings.TrimSpace(t.Body)
	if text == "" {
		return
	}
	if !p.buffer(t.Source, "text", text) {
		return
	}
	p.reply(ctx, t.Source, msgTextAdded, true)
}

func (p *Processor) handleAudio(ctx context.Context, a events.Audio) {
	p.logger.Info("audio received", "conversation", a.Conversation, "duration", a.Duration, "mime_type", a.MimeType)

	text, err := p.withMedia(ctx, a.FileID, "scribe-audio-*"+audioExt(a.FileName, a.MimeType), func(path string) string {
		return p.transcriber.Transcribe(ctx, path)
	})
	if err != nil {
		p.logger.Error("audio fetch failed", "conversation", a.Conversation, "file_id", a.FileID, "error", err)
		p.reply(ctx, a.Source, msgAudioFetch, true)
		return
	}

	p.logger.Info("audio transcribed", "conversation", a.Conversation, "chars", len(text))
	if !p.buffer(a.Source, "audio", text) {
		return
	}
	p.reply(ctx, a.Source, msgAudioPrefix+strings.TrimSpace(text), true)
}

func (p *Processor) handleImage(ctx context.Context, img events.Image) {
	p.logger.Info("image received", "conversation", img.Conversation, "width", img.Width, "height", img.Height)

	text, err := p.withMedia(ctx, img.FileID, "scribe-image-*.jpg", func(path string) string {
		return p.recognizer.ExtractText(ctx, path)
	})
	if err != nil {
		p.logger.Error("image fetch failed", "conversation", img.Conversation, "file_id", img.FileID, "error", err)
		p.reply(ctx, img.Source, msgImageFetch, true)
		return
	}

	p.logger.Info("image recognized", "conversation", img.Conversation, "chars", len(text))
	if !p.buffer(img.Source, "image", text) {
		return
	}
	p.reply(ctx, img.Source, msgImagePrefix+strings.TrimSpace(text), true)
}

// buffer appends text to the conversation's draft and reports whether it was kept.
func (p *Processor) buffer(src events.Source, modality, text string) bool {
	if err := p.drafts.Append(src.Conversation, text); err != nil {
		if errors.Is(err, draft.ErrInvalidFragment) {
			p.logger.Debug("dropping blank fragment", "conversation", src.Conversation, "modality", modality)
		} else {
			p.logger.Error("append failed", "conversation", src.Conversation, "error", err)
		}
		return false
	}
	p.publish(SubjectFragmentBuffered, map[string]any{
		"conversation": string(src.Conversation),
		"modality":     modality,
		"fragments":    p.drafts.Len(src.Conversation),
	})
	return true
}

// withMedia downloads fileID into a temp file, hands its path to fn and
// removes the file on every exit path.
func (p *Processor) withMedia(ctx context.Context, fileID, pattern string, fn func(path string) string) (string, error) {
	f, err := os.CreateTemp(p.tempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer func() {
		_ = f.Close()
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.logger.Warn("failed to remove temp file", "path", path, "error", err)
		}
	}()

	if err := p.fetcher.Download(ctx, fileID, f); err != nil {
		return "", fmt.Errorf("download %s: %w", fileID, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return fn(path), nil
}

var audioExtByMime = map[string]string{
	"audio/ogg":   ".ogg",
	"audio/opus":  ".ogg",
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/aac":   ".aac",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/flac":  ".flac",
	"audio/webm":  ".webm",
}

// audioExt picks a file extension so format sniffing downstream works.
func audioExt(fileName, mimeType string) string {
	if ext := filepath.Ext(fileName); ext != "" && !strings.ContainsAny(ext, `/\*`) {
		return strings.ToLower(ext)
	}
	if ext, ok := audioExtByMime[strings.ToLower(mimeType)]; ok {
		return ext
	}
	return ".ogg"
}
