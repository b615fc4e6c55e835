package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tphummel/ict_assets/internal/models"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 8, 1, '\t', 0)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func age(t time.Time) string {
	if t.IsZero() {
		return "<none>"
	}
	return humanize.Time(t)
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

func printAssets(w io.Writer, assets []*models.Asset) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "SERIAL\tTYPE\tSTATUS\tHOLDER\tLOCATION\tPAIR\tUPDATED")
	for _, a := range assets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.SerialNumber, a.Type, a.Status, orNone(a.Holder), orNone(a.Location), orNone(a.PairID), age(a.UpdatedAt))
	}
	return tw.Flush()
}

func printAsset(w io.Writer, a *models.Asset) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "ID:\t%s\n", a.ID)
	fmt.Fprintf(tw, "Serial:\t%s\n", a.SerialNumber)
	fmt.Fprintf(tw, "Type:\t%s\n", a.Type)
	fmt.Fprintf(tw, "Brand/Model:\t%s %s\n", a.Brand, a.Model)
	fmt.Fprintf(tw, "Status:\t%s\n", a.Status)
	fmt.Fprintf(tw, "Holder:\t%s\n", orNone(a.Holder))
	fmt.Fprintf(tw, "Domain account:\t%s\n", orNone(a.DomainAccount))
	fmt.Fprintf(tw, "Location:\t%s\n", orNone(a.Location))
	fmt.Fprintf(tw, "Department:\t%s\n", orNone(a.Department))
	fmt.Fprintf(tw, "Pair:\t%s\n", orNone(a.PairID))
	fmt.Fprintf(tw, "Version:\t%d\n", a.Version)
	fmt.Fprintf(tw, "Updated:\t%s\n", age(a.UpdatedAt))
	return tw.Flush()
}

func printActions(w io.Writer, actions []*models.LifecycleAction) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "ID\tACTION\tPRIMARY\tSECONDARY\tSTATUS\tREQUESTED BY\tREQUESTED")
	for _, a := range actions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.ActionType, a.PrimarySerial, orNone(a.SecondarySerial), a.Status, a.RequestedBy, age(a.RequestDate))
	}
	return tw.Flush()
}

func printTickets(w io.Writer, tickets []*models.MaintenanceTicket) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "ID\tASSET\tTITLE\tPRIORITY\tSTATUS\tOBSOLETE\tRECEIVED")
	for _, t := range tickets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			t.ID, t.AssetSerial, t.Title, t.Priority, t.Status, t.IsObsolete, age(t.DateReceived))
	}
	return tw.Flush()
}

func printAudit(w io.Writer, entries []*models.AuditLog) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw, "WHEN\tASSET\tACTION\tBY\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", age(e.Timestamp), e.AssetSerial, e.Action, e.PerformedBy, e.Details)
	}
	return tw.Flush()
}

func printDashboard(w io.Writer, d *models.DashboardStats) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Total assets:\t%s\n", humanize.Comma(int64(d.TotalAssets)))
	fmt.Fprintf(tw, "Active:\t%d\n", d.ActiveAssets)
	fmt.Fprintf(tw, "In store:\t%d\n", d.InStore)
	fmt.Fprintf(tw, "Under maintenance:\t%d\n", d.InMaintenance)
	fmt.Fprintf(tw, "Obsolete:\t%d\n", d.ObsoleteAssets)
	fmt.Fprintf(tw, "Disposed:\t%d\n", d.DisposedAssets)
	fmt.Fprintf(tw, "PC / VDI:\t%d / %d\n", d.PCAssets, d.VDIAssets)
	fmt.Fprintf(tw, "Pairs (deployed):\t%d (%d)\n", d.TotalPairs, d.DeployedPairs)
	fmt.Fprintf(tw, "Open tickets:\t%d\n", d.OpenTickets)
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(d.RecentActivities) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recent activity:")
	return printAudit(w, d.RecentActivities)
}
