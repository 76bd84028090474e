package policies

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nexliaai/corretor/pkg/query"
	"github.com/nexliaai/corretor/pkg/repository"
)

// ExportSheet is the worksheet name of exported workbooks.
const ExportSheet = "Apolices"

var exportHeaders = []string{"id", "document_id", "party_id", "party_name", "party_kind", "category"}

func (r *repo) Export(ctx context.Context, filters Filters) ([]byte, error) {
	start := time.Now()

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	q, args := qb.Build()
	items, err := repository.QueryMany(ctx, r.db, q, args, scanPolicy)
	if err != nil {
		return nil, fmt.Errorf("query policies: %w", err)
	}

	data, err := Workbook(items)
	if err != nil {
		return nil, err
	}

	r.logger.Info("export.xlsx.ok",
		"rows", len(items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}

// Workbook renders records as an XLSX workbook with one row per record
// and one column per stored field.
func Workbook(items []Policy) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	headers := append(append([]string{}, exportHeaders...), Columns()...)
	if err := f.SetSheetRow(ExportSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("xlsx header: %w", err)
	}

	for i, p := range items {
		row := []any{
			p.ID.String(),
			p.DocumentID.String(),
			p.PartyID.String(),
			deref(p.PartyName),
			string(p.PartyKind),
			string(p.Category),
		}
		row = append(row, cellValues(&p.AutoPolicyFields)...)

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}

	last, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(ExportSheet, "A", last, 18)
	_ = f.SetPanes(ExportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
