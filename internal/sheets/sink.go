package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/MikeSquared-Agency/scribe/internal/record"
)

const (
	DefaultRange = "A:L"

	valueInputOption = "USER_ENTERED"
	insertDataOption = "INSERT_ROWS"
)

// Sink appends committed records as rows to a Google spreadsheet.
type Sink struct {
	values        *gsheets.SpreadsheetsValuesService
	spreadsheetID string
	rng           string
	location      *time.Location
	logger        *slog.Logger
}

// NewFromCredentials authenticates with a service-account key file.
func NewFromCredentials(ctx context.Context, credentialsFile, spreadsheetID, rng string, loc *time.Location, logger *slog.Logger) (*Sink, error) {
	return New(ctx, spreadsheetID, rng, loc, logger,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
}

func New(ctx context.Context, spreadsheetID, rng string, loc *time.Location, logger *slog.Logger, opts ...option.ClientOption) (*Sink, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	if rng == "" {
		rng = DefaultRange
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		rng:           rng,
		location:      loc,
		logger:        logger.With("component", "sheets"),
	}, nil
}

func (s *Sink) Name() string { return "sheets" }

// Append inserts one row after the last row of the configured range.
// Values are entered as if typed, so the timestamps become dates.
func (s *Sink) Append(ctx context.Context, rec record.Record) error {
	vr := &gsheets.ValueRange{Values: [][]interface{}{rec.Row(s.location)}}

	resp, err := s.values.Append(s.spreadsheetID, s.rng, vr).
		ValueInputOption(valueInputOption).
		InsertDataOption(insertDataOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}

	if resp.Updates != nil {
		s.logger.Debug("row appended", "range", resp.Updates.UpdatedRange, "cells", resp.Updates.UpdatedCells)
	}
	return nil
}
