package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/mask-sentry/internal/pipeline"
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Inspect every image in a directory",
	Long: `Run each image in a directory through the pipeline, one at a time.
Every image is an independent invocation; alerts are sent per violation.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().Bool("no-alerts", false, "Do not send alerts for any image")
	scanCmd.Flags().Int("limit", 0, "Limit number of images to inspect (0 = no limit)")
}

var scanExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".webp", ".gif"}

// listImages returns image files directly inside dir, sorted by name.
func listImages(dir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(scanExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
		if limit > 0 && len(paths) == limit {
			break
		}
	}
	return paths, nil
}

type scanEntry struct {
	path   string
	report *pipeline.Report
	err    error
}

func runScan(cmd *cobra.Command, args []string) error {
	noAlerts := mustGetBool(cmd, "no-alerts")
	limit := mustGetInt(cmd, "limit")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	a, err := buildApp(ctx, logger, nil)
	if err != nil {
		return err
	}

	paths, err := listImages(args[0], limit)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println("No images found")
		return nil
	}

	fmt.Printf("Scanning: %s (%d images)\n", args[0], len(paths))
	fmt.Printf("Classifier: %s\n", a.classifier.Name())
	if noAlerts || !a.cfg.Alerts.Enabled {
		fmt.Println("Mode: ALERTS OFF (violations are reported only)")
	}
	fmt.Println()

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Inspecting"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	entries := make([]scanEntry, 0, len(paths))
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		entry := scanEntry{path: path}
		img, err := loadImage(path)
		if err != nil {
			entry.err = err
		} else {
			entry.report = a.pipeline.Run(ctx, img, pipeline.RunOptions{DisableAlerts: noAlerts})
		}
		entries = append(entries, entry)
		bar.Add(1)
	}
	bar.Finish()

	printScanSummary(entries)
	printUsage(a.classifier)
	return nil
}

func printScanSummary(entries []scanEntry) {
	counts := make(map[string]int)
	var violations []scanEntry
	var errs []scanEntry

	for _, e := range entries {
		if e.err != nil {
			counts["unreadable"]++
			errs = append(errs, e)
			continue
		}
		counts[string(e.report.State)]++
		if e.report.State == pipeline.StateAlertsSent || e.report.State == pipeline.StateAlertsSkipped {
			violations = append(violations, e)
		}
	}

	fmt.Printf("\nInspected: %d images\n", len(entries))
	states := make([]string, 0, len(counts))
	for s := range counts {
		states = append(states, s)
	}
	slices.Sort(states)
	for _, s := range states {
		fmt.Printf("  %-15s %d\n", s+":", counts[s])
	}

	if len(violations) > 0 {
		fmt.Println("\nViolations:")
		for _, e := range violations {
			fmt.Printf("  %s: %s\n", filepath.Base(e.path), e.report.Reason())
		}
	}

	if len(errs) > 0 {
		fmt.Printf("\nErrors: %d\n", len(errs))
		for _, e := range errs {
			fmt.Printf("  - %v\n", e.err)
		}
	}
}
