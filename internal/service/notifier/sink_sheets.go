package notifier

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsSink appends one row per result: name, phone, score, username.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	rng           string
}

// NewSheetsService builds a Sheets client from a service-account key file.
func NewSheetsService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*sheets.Service, error) {
	opts = append([]option.ClientOption{
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	}, opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}
	return svc, nil
}

func NewSheetsSink(svc *sheets.Service, spreadsheetID, rng string) *SheetsSink {
	if rng == "" {
		rng = "Sheet1"
	}
	return &SheetsSink{svc: svc, spreadsheetID: spreadsheetID, rng: rng}
}

func (s *SheetsSink) Name() string { return "sheets" }

func (s *SheetsSink) Send(ctx context.Context, e Export) error {
	row := &sheets.ValueRange{
		Values: [][]interface{}{{e.Name, e.Phone, e.Score, e.Username}},
	}
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.rng, row).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append sheet row: %w", err)
	}
	return nil
}
