package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Converter re-encodes audio to 16 kHz mono WAV with ffmpeg.
type Converter struct {
	bin string
}

func NewConverter(bin string) *Converter {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Converter{bin: bin}
}

func (c *Converter) ToWAV(ctx context.Context, in, out string) error {
	cmd := exec.CommandContext(ctx, c.bin,
		"-y", "-loglevel", "error",
		"-i", in,
		"-ar", "16000", "-ac", "1",
		"-f", "wav", out,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("convert to wav: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// WhisperCPPEngine runs a local whisper.cpp model through its CLI.
type WhisperCPPEngine struct {
	bin      string
	model    string
	language string
}

func NewWhisperCPPEngine(bin, model, language string) *WhisperCPPEngine {
	if bin == "" {
		bin = "whisper-cli"
	}
	if language == "" {
		language = "auto"
	}
	return &WhisperCPPEngine{bin: bin, model: model, language: language}
}

func (e *WhisperCPPEngine) Name() string { return "whispercpp" }

func (e *WhisperCPPEngine) Recognize(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, e.bin,
		"-m", e.model,
		"-l", e.language,
		"-nt", "-np",
		"-f", path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper.cpp: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	// One segment per line.
	lines := strings.Split(stdout.String(), "\n")
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " "), nil
}
