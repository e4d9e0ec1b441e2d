package ledger

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const statementSheet = "Statement"

var statementHeader = []interface{}{"Date", "Kind", "State", "Amount", "Effect", "Running balance", "Description"}

// ExportStatement writes the ledger history of a staff member as an XLSX workbook.
// Reversed entries are listed with a zero effect.
func (svc *Service) ExportStatement(ctx context.Context, orgID, staffID string, w io.Writer) error {
	rec, err := svc.Reconcile(ctx, orgID, staffID)
	if err != nil {
		return err
	}
	entries, err := svc.repo.QueryEntries(ctx, orgID, &QueryFilter{StaffID: staffID})
	if err != nil {
		return errors.Wrap(err, "querying ledger entries")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err = f.SetSheetName("Sheet1", statementSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	if err = f.SetSheetRow(statementSheet, "A1", &[]interface{}{"Staff member", rec.StaffName}); err != nil {
		return errors.Wrap(err, "writing title")
	}
	if err = f.SetSheetRow(statementSheet, "A2", &[]interface{}{"Balance", rec.Stored.StringFixed(2)}); err != nil {
		return errors.Wrap(err, "writing balance")
	}
	if err = f.SetSheetRow(statementSheet, "A4", &statementHeader); err != nil {
		return errors.Wrap(err, "writing header")
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	if err = f.SetCellStyle(statementSheet, "A4", "G4", bold); err != nil {
		return errors.Wrap(err, "styling header")
	}
	if err = f.SetColWidth(statementSheet, "A", "G", 18); err != nil {
		return errors.Wrap(err, "sizing columns")
	}

	running := decimal.Zero
	for i, e := range entries {
		running = running.Add(e.Effect())
		cell, err := excelize.CoordinatesToCellName(1, i+5)
		if err != nil {
			return errors.Wrap(err, "computing cell name")
		}
		row := []interface{}{
			e.CreatedAt.Format("2006-01-02 15:04"),
			string(e.Kind),
			string(e.State),
			e.Amount.StringFixed(2),
			e.Effect().StringFixed(2),
			running.StringFixed(2),
			e.Description,
		}
		if err = f.SetSheetRow(statementSheet, cell, &row); err != nil {
			return errors.Wrap(err, "writing entry row")
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}
