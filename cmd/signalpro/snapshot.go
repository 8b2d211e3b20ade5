package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/newthinker/signalpro/internal/logger"
	"github.com/newthinker/signalpro/internal/performance"
	"github.com/newthinker/signalpro/internal/session"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the dashboard state",
	Long: `Print the summary cards, active signals and trade history. With --ticks the
confidence drift is applied that many times first.`,
	RunE: runSnapshot,
}

var (
	snapshotTicks int
	snapshotJSON  bool
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().IntVar(&snapshotTicks, "ticks", 0, "refresh ticks to apply before printing")
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "print the snapshot as JSON")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	sess, err := newSession(cfg, log)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	defer sess.Close()

	for i := 0; i < snapshotTicks; i++ {
		if _, err := sess.Tick(); err != nil {
			return err
		}
	}

	snap, err := sess.Snapshot(context.Background())
	if err != nil {
		return err
	}

	if snapshotJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	printSnapshot(os.Stdout, snap)
	return nil
}

func printSnapshot(out io.Writer, snap session.Snapshot) {
	m := snap.Metrics
	fmt.Fprintf(out, "Win Rate:      %s\n", performance.FormatWinRate(m.WinRate))
	fmt.Fprintf(out, "Total Profit:  %s\n", performance.FormatProfit(m.TotalProfit))
	fmt.Fprintf(out, "Profit Factor: %s\n", m.FormatProfitFactor())
	fmt.Fprintf(out, "Trades:        %d (%d win / %d loss)\n", m.TotalTrades, m.WinTrades, m.LossTrades)
	fmt.Fprintf(out, "Ticks:         %d\n\n", snap.Tick)

	fmt.Fprintln(out, "ACTIVE SIGNALS")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ASSET\tDIRECTION\tENTRY\tCONFIDENCE\tEXPECTED MOVE\tEXPIRY\tVOTES\tTIME")
	for _, s := range snap.ActiveSignals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f%%\t%.2f%%\t%ds\t%d/3\t%s\n",
			s.Asset,
			s.Direction,
			s.EntryPrice.String(),
			s.Confidence,
			s.ExpectedMovePct,
			s.RecommendedExpiration,
			s.ModelVotes.Agreeing(),
			s.Timestamp.Format("15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintln(out, "\nHISTORY")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ASSET\tDIRECTION\tENTRY\tCONFIDENCE\tRESULT\tPROFIT\tTIME")
	for _, h := range snap.History {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f%%\t%s\t%s\t%s\n",
			h.Asset,
			h.Direction,
			h.EntryPrice.String(),
			h.Confidence,
			h.Result,
			performance.FormatProfit(h.Profit),
			h.Timestamp.Format("15:04:05"),
		)
	}
	w.Flush()

	if len(snap.ActiveSignals) > 0 {
		fmt.Fprintf(out, "\nTop reasons for %s:\n  %s\n",
			snap.ActiveSignals[0].Asset, strings.Join(snap.ActiveSignals[0].Reasons, "\n  "))
	}
}
