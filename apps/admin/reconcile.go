package main

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// reconcile prints the stored and computed balance of every staff member of the organization.
// With fix, inconsistent balances are repaired.
func (cli *commandLine) reconcile(orgID string, fix bool) error {
	ctx := context.Background()
	if _, err := cli.orgSvc.Get(ctx, orgID); err != nil {
		return err
	}

	recs, err := cli.ledgerSvc.ReconcileOrganization(ctx, orgID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.stdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STAFF\tNAME\tSTORED\tCOMPUTED\tSTATUS")
	for _, rec := range recs {
		status := "ok"
		if !rec.Consistent {
			status = "inconsistent"
			if fix {
				if rec, err = cli.ledgerSvc.Repair(ctx, orgID, rec.StaffID); err != nil {
					return err
				}
				status = "repaired"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rec.StaffID, rec.StaffName, rec.Stored.StringFixed(2), rec.Computed.StringFixed(2), status)
	}
	return w.Flush()
}
