// Command fieldctl drives the sequence-field change algebra from the
// command line: it builds a couple of revisions with pkg/editor, composes
// and rebases them, lowers the result to a delta, and records the whole
// session to a durable lattice store, an audit log, and an xlsx trace
// report.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/seqfield/internal/auditlog"
	"github.com/kasuganosora/seqfield/internal/latticestore"
	"github.com/kasuganosora/seqfield/internal/report"
	"github.com/kasuganosora/seqfield/pkg/changeset"
	"github.com/kasuganosora/seqfield/pkg/compose"
	"github.com/kasuganosora/seqfield/pkg/delta"
	"github.com/kasuganosora/seqfield/pkg/editor"
	"github.com/kasuganosora/seqfield/pkg/invert"
	"github.com/kasuganosora/seqfield/pkg/mark"
	"github.com/kasuganosora/seqfield/pkg/rebase"
	"github.com/kasuganosora/seqfield/pkg/revision"
	"github.com/kasuganosora/seqfield/pkg/seqconfig"
	"github.com/kasuganosora/seqfield/pkg/telemetry"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

func main() {
	recentOnly := flag.Bool("recent", false, "print recent audit log entries instead of running the demo")
	configPath := flag.String("config", "", "path to a fieldctl JSON config file")
	flag.Parse()

	cfg := seqconfig.Default()
	if *configPath != "" {
		loaded, err := seqconfig.Load(*configPath)
		if err != nil {
			log.Fatalf("fieldctl: loading config: %v", err)
		}
		cfg = loaded
	} else {
		cfg = seqconfig.LoadOrDefault()
	}

	logger, err := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("fieldctl: building logger: %v", err)
	}
	compose.SetLogger(logger)
	invert.SetLogger(logger)
	rebase.SetLogger(logger)

	tracer, err := telemetry.NewTracer("seqfield/fieldctl")
	if err != nil {
		log.Fatalf("fieldctl: building tracer: %v", err)
	}
	compose.SetTracer(tracer)
	invert.SetTracer(tracer)
	rebase.SetTracer(tracer)

	if err := os.MkdirAll(cfg.Store.Dir, 0o755); err != nil {
		log.Fatalf("fieldctl: creating store dir: %v", err)
	}
	store, err := latticestore.Open(cfg.Store.Dir)
	if err != nil {
		log.Fatalf("fieldctl: opening lattice store: %v", err)
	}
	defer store.Close()

	if err := os.MkdirAll(filepath.Dir(cfg.Audit.Path), 0o755); err != nil {
		log.Fatalf("fieldctl: creating audit dir: %v", err)
	}
	audit, err := auditlog.Open(cfg.Audit.Path)
	if err != nil {
		log.Fatalf("fieldctl: opening audit log: %v", err)
	}
	defer audit.Close()

	if *recentOnly {
		printRecent(audit)
		return
	}

	if err := runDemo(cfg, store, audit); err != nil {
		log.Fatalf("fieldctl: %v", err)
	}
}

func printRecent(audit *auditlog.Log) {
	entries, err := audit.Recent(20)
	if err != nil {
		log.Fatalf("fieldctl: reading audit log: %v", err)
	}
	for _, e := range entries {
		fmt.Printf("%-20s %-10s rev=%-12s marks=%-3d %6dms\n", e.At.Format(time.RFC3339), e.Operator, e.Revision, e.Marks, e.ElapsedMS)
	}
}

// runDemo builds two revisions over a 3-cell field (revision one inserts
// the cells; revision two removes the second cell and attaches a nil
// child change to the third), composes them, inverts the composed result,
// rebases revision one over revision two, lowers the composed result to a
// delta, and records the runs in the audit log, the store and a report.
func runDemo(cfg *seqconfig.Config, store *latticestore.Store, audit *auditlog.Log) error {
	md := revision.NewTable()

	r1 := uuid.New().String()
	md.Append(r1)
	e1 := editor.New(r1)
	insertID := e1.Insert(0, 3, mark.Left)
	base := e1.Tag()

	r2 := uuid.New().String()
	md.Append(r2)
	e2 := editor.New(r2)
	removeID := e2.Remove(1, 1)
	e2.Modify(0, nil)
	next := e2.Tag()

	composed, elapsed := timed(func() changeset.Changeset {
		return compose.Two(base, next, md, nil)
	})
	if err := audit.Record("compose", fmt.Sprintf("%v+%v", r1, r2), len(composed.Marks), elapsed, time.Now()); err != nil {
		return fmt.Errorf("recording compose call: %w", err)
	}
	if err := store.RecordTombstone(removeID); err != nil {
		return fmt.Errorf("recording tombstone: %w", err)
	}

	r3 := uuid.New().String()
	md.Append(r3)
	inverted, elapsed := timed(func() changeset.Changeset {
		return invert.Invert(changeset.Tag(composed, r2), false, r3, nil)
	})
	if err := audit.Record("invert", r3, len(inverted.Marks), elapsed, time.Now()); err != nil {
		return fmt.Errorf("recording invert call: %w", err)
	}

	rebased, elapsed := timed(func() changeset.Changeset {
		return rebase.Rebase(base, next, md, nil)
	})
	if err := audit.Record("rebase", fmt.Sprintf("%v/%v", r1, r2), len(rebased.Marks), elapsed, time.Now()); err != nil {
		return fmt.Errorf("recording rebase call: %w", err)
	}

	d := delta.IntoDelta(changeset.Tag(composed, r2), nil)

	if err := os.MkdirAll(cfg.Report.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	reportPath := filepath.Join(cfg.Report.OutputDir, "trace.xlsx")
	rows := make([]report.Row, 0, len(composed.Marks))
	for i, m := range composed.Marks {
		row := report.Row{Operator: "compose", After: m}
		if i < len(base.Change.Marks) {
			row.Before1 = base.Change.Marks[i]
		}
		if i < len(next.Change.Marks) {
			row.Before2 = next.Change.Marks[i]
		}
		rows = append(rows, row)
	}
	if err := report.WriteTrace(reportPath, rows); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	p := message.NewPrinter(language.English)
	p.Printf("inserted id=%v, removed id=%v\n", insertID, removeID)
	p.Printf("composed %v marks, inverted %v marks, rebased %v marks\n",
		number.Decimal(len(composed.Marks)), number.Decimal(len(inverted.Marks)), number.Decimal(len(rebased.Marks)))
	p.Printf("delta: %v builds, %v renames\n", number.Decimal(len(d.Build)), number.Decimal(len(d.Renames)))
	p.Printf("trace written to %s\n", reportPath)
	return nil
}

func timed(f func() changeset.Changeset) (changeset.Changeset, time.Duration) {
	start := time.Now()
	out := f()
	return out, time.Since(start)
}
