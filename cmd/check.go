package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/mask-sentry/internal/pipeline"
)

var checkCmd = &cobra.Command{
	Use:   "check <image>",
	Short: "Inspect one image for face mask violations",
	Long: `Run one image through face detection, mask classification and, on a
violation, alert dispatch. Each stage is reported as it completes.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Bool("no-alerts", false, "Do not send alerts for this run")
	checkCmd.Flags().String("annotated", "", "Write the annotated image (face boxes) to this path")
}

func runCheck(cmd *cobra.Command, args []string) error {
	noAlerts := mustGetBool(cmd, "no-alerts")
	annotatedPath := mustGetString(cmd, "annotated")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	a, err := buildApp(ctx, logger, nil)
	if err != nil {
		return err
	}

	img, err := loadImage(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Inspecting: %s (%s, %dx%d)\n", args[0], img.Format(), img.Width(), img.Height())
	fmt.Printf("Classifier: %s\n", a.classifier.Name())
	if noAlerts || !a.cfg.Alerts.Enabled {
		fmt.Println("Mode: ALERTS OFF (violations are reported only)")
	}
	fmt.Println()

	report := a.pipeline.Run(ctx, img, pipeline.RunOptions{DisableAlerts: noAlerts})
	printReport(report)

	if annotatedPath != "" && len(report.Annotated) > 0 {
		if err := os.WriteFile(annotatedPath, report.Annotated, 0o600); err != nil {
			return fmt.Errorf("writing annotated image: %w", err)
		}
		fmt.Printf("\nAnnotated image written to %s\n", annotatedPath)
	}

	printUsage(a.classifier)
	return nil
}

// printReport prints one line per stage reached, then the stop reason.
func printReport(r *pipeline.Report) {
	fmt.Printf("Run: %s\n", r.ID)

	if r.DetectionError != "" {
		fmt.Printf("  Face check:     failed (%s)\n", r.DetectionError)
	} else {
		fmt.Printf("  Face check:     %d face(s)\n", r.FaceCount)
		for i, b := range r.Boxes {
			fmt.Printf("    #%d at (%d,%d) %dx%d\n", i+1, b.X, b.Y, b.Width, b.Height)
		}
	}

	switch {
	case r.Verdict != nil:
		fmt.Printf("  Classification: mask_detected=%t\n", r.Verdict.MaskDetected)
		fmt.Printf("    Reason: %s\n", r.Verdict.Reason)
	case r.ClassifierFailure != "":
		fmt.Printf("  Classification: failed (%s) %s\n", r.ClassifierFailure, r.ClassifierError)
	default:
		fmt.Println("  Classification: skipped")
	}

	fmt.Printf("  Decision:       %s\n", r.Decision)

	if r.Alerts != nil {
		fmt.Println("  Alerts:")
		for _, d := range r.Alerts.Deliveries {
			if d.OK() {
				fmt.Printf("    %-9s sent (%s)\n", d.Sink, d.Duration.Round(time.Millisecond))
			} else {
				fmt.Printf("    %-9s FAILED: %s\n", d.Sink, d.Error)
			}
		}
	}

	fmt.Printf("\nResult: %s\n", r.State)
	fmt.Printf("  %s\n", r.Reason())
}
