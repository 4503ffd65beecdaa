// Command ingest loads timing-system result files into the standings store.
//
// Each regular file becomes one race. Files passed with -run 1 or -run 2 are
// the two runs of a qualifier day and get no race number.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	service "github.com/okian/alpine/internal/app"
	"github.com/okian/alpine/internal/config"
	"github.com/okian/alpine/internal/domain/model"
	"github.com/okian/alpine/pkg/logger"
)

const stopTimeout = 30 * time.Second

type options struct {
	file     string
	dir      string
	yes      bool
	run      int
	location string
	publish  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		os.Stderr.WriteString("ingest: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.StringVar(&o.file, "file", "", "path to a single race result CSV")
	fs.StringVar(&o.dir, "dir", "", "path to a directory of race result CSVs")
	fs.BoolVar(&o.yes, "yes", false, "skip the confirmation prompt")
	fs.IntVar(&o.run, "run", 0, "qualifier run number (1 or 2); 0 for regular races")
	fs.StringVar(&o.location, "location", "", "venue stored with new race days")
	fs.BoolVar(&o.publish, "publish", false, "publish CSV exports after ingesting")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if (o.file == "") == (o.dir == "") {
		return o, errors.New("exactly one of -file or -dir is required")
	}
	if o.run < 0 || o.run > 2 {
		return o, fmt.Errorf("-run must be 0, 1 or 2, got %d", o.run)
	}
	return o, nil
}

func run(ctx context.Context, o options, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	var logOpts []logger.Option
	if cfg.LogFormat == "json" {
		logOpts = append(logOpts, logger.WithJSON())
	}
	logOpts = append(logOpts, logger.WithWriter(os.Stderr))
	if err := logger.Init(logOpts...); err != nil {
		return err
	}
	_ = logger.SetLevelString(cfg.LogLevel)
	log := logger.Get().Named("ingest")
	batchID := uuid.NewString()

	files, err := collectFiles(o)
	if err != nil {
		return err
	}
	batches, err := parseFiles(ctx, files, o.run, o.location)
	if err != nil {
		return err
	}
	log.Info(ctx, "parsed result files", logger.String("batch", batchID), logger.Int("files", len(batches)))

	svcOpts, err := service.OptionsFromConfig(ctx, cfg, log)
	if err != nil {
		return err
	}
	svc := service.New(svcOpts...)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(stopCtx, "close store", logger.Error(err))
		}
	}()

	next, err := svc.NextRaceID(ctx)
	if err != nil {
		return err
	}
	preview(out, batches, next)

	if !o.yes && !confirm(in, out) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	reports, err := svc.Ingest(ctx, batches)
	log.Info(ctx, "ingested result files", logger.String("batch", batchID), logger.Int("reports", len(reports)))
	for _, r := range reports {
		switch {
		case r.Run > 0:
			fmt.Fprintf(out, "  Run %d (%s): %d inserted, %d skipped\n", r.Run, r.Name, r.Inserted, r.Skipped)
		case r.RaceID > 0:
			fmt.Fprintf(out, "  Race #%d (%s): %d inserted, %d skipped\n", r.RaceID, r.Name, r.Inserted, r.Skipped)
		default:
			fmt.Fprintf(out, "  %s: no results\n", r.Name)
		}
	}
	if err != nil {
		if !errors.Is(err, service.ErrNoEventDate) {
			return err
		}
		// undated files are reported and the rest still went in
		fmt.Fprintf(out, "  Skipped: %v\n", err)
	}

	if o.publish {
		keys, err := svc.PublishAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Published %d files\n", len(keys))
	}

	fmt.Fprintln(out, "\nDone.")
	return nil
}

// collectFiles returns the file to ingest, or every CSV in the directory in
// name order so race numbers follow the date prefixes.
func collectFiles(o options) ([]string, error) {
	if o.file != "" {
		return []string{o.file}, nil
	}
	files, err := filepath.Glob(filepath.Join(o.dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CSV files found in %s", o.dir)
	}
	sort.Strings(files)
	return files, nil
}

// parseFiles reads every file concurrently and keeps the input order.
func parseFiles(ctx context.Context, files []string, run int, location string) ([]service.Batch, error) {
	batches := make([]service.Batch, len(files))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			b, err := service.ParseBatch(f, filepath.Base(path), run, location)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			batches[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batches, nil
}

func preview(out io.Writer, batches []service.Batch, next int) {
	fmt.Fprintf(out, "\nFiles to ingest: %d\n\n", len(batches))

	raceID := next
	total := 0
	for _, b := range batches {
		total += len(b.Records)
		switch {
		case b.EventDate == "":
			fmt.Fprintf(out, "  Skipped (no event date): %s\n", b.Name)
			continue
		case len(b.Records) == 0:
			fmt.Fprintf(out, "  Skipped (no results): %s\n\n", b.Name)
			continue
		case b.Run > 0:
			fmt.Fprintf(out, "  Qualifier run %d: %s\n", b.Run, b.Name)
		default:
			fmt.Fprintf(out, "  Race #%d: %s\n", raceID, b.Name)
			raceID++
		}

		labels := make([]string, 0, 2)
		for _, c := range b.Categories() {
			labels = append(labels, c.Label())
		}
		fmt.Fprintf(out, "    Category: %s\n", strings.Join(labels, ", "))
		fmt.Fprintf(out, "    Results: %d (%s)\n", len(b.Records), divisionCounts(b.Records))
		if top := topScorers(b.Records, 3); top != "" {
			fmt.Fprintf(out, "    Top scorers: %s\n", top)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Total results: %d\n", total)
	if raceID > next {
		fmt.Fprintf(out, "Race numbers: %d-%d\n", next, raceID-1)
	}
	fmt.Fprintln(out)
}

func divisionCounts(records []model.PlacementRecord) string {
	counts := map[string]int{}
	for _, r := range records {
		counts[r.Division.Slug()]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}

func topScorers(records []model.PlacementRecord, n int) string {
	sorted := make([]model.PlacementRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Points > sorted[j].Points })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	parts := make([]string, len(sorted))
	for i, r := range sorted {
		parts[i] = fmt.Sprintf("%s %s (%dpts)", r.FirstName, r.LastName, r.Points)
	}
	return strings.Join(parts, ", ")
}

// confirm asks before writing; an empty answer means yes.
func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Proceed with ingestion? [Y/n] ")
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "" || answer == "y"
}
