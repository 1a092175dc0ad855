package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/pagesnap/capture"
	"github.com/hazyhaar/pagesnap/capture/snapshot"
)

var (
	captureOutput     string
	captureViewports  []string
	captureNavTimeout time.Duration
	captureSettle     time.Duration
	capturePDF        bool
	captureNoFetch    bool
	capturePublicOnly bool
	captureHeadful    bool
)

var captureCmd = &cobra.Command{
	Use:   "capture <url>",
	Short: "Capture one page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("nav-timeout") {
			cfg.Timeouts.Navigation = captureNavTimeout
		}
		if flags.Changed("settle") {
			cfg.Timeouts.Settle = captureSettle
		}
		if captureNoFetch {
			cfg.Fetch.Disabled = true
		}
		if capturePublicOnly {
			cfg.Fetch.PublicOnly = true
		}
		if captureHeadful {
			cfg.Browser.Headful = true
		}

		req := capture.Request{URL: args[0], OutputDir: captureOutput, PDF: capturePDF}
		for _, s := range captureViewports {
			vp, err := capture.ParseViewport(s)
			if err != nil {
				return err
			}
			req.Viewports = append(req.Viewports, vp)
		}

		c, release, err := newCapturer(cfg)
		if err != nil {
			return err
		}
		defer release()

		rep, err := c.Capture(cmd.Context(), req)
		printReport(rep)
		if err != nil {
			return err
		}
		if rep.Error != "" {
			return errors.New(rep.Error)
		}
		return nil
	},
}

func init() {
	f := captureCmd.Flags()
	f.StringVarP(&captureOutput, "output", "o", "", "capture root (default pagesnap_<host>_<timestamp>)")
	f.StringArrayVar(&captureViewports, "viewport", nil, "screenshot size name=WIDTHxHEIGHT (repeatable)")
	f.DurationVar(&captureNavTimeout, "nav-timeout", 30*time.Second, "navigation timeout")
	f.DurationVar(&captureSettle, "settle", 2*time.Second, "wait after scrolling before extraction")
	f.BoolVar(&capturePDF, "pdf", false, "also print page.pdf")
	f.BoolVar(&captureNoFetch, "no-fetch", false, "skip the out-of-browser asset fetch")
	f.BoolVar(&capturePublicOnly, "public-only", false, "refuse private and loopback addresses")
	f.BoolVar(&captureHeadful, "headful", false, "show the browser window")
}

func printReport(r *snapshot.CaptureReport) {
	pterm.DefaultSection.Printf("Capture %s\n", r.ID)
	data := pterm.TableData{
		{"URL", r.URL},
		{"Final URL", r.FinalURL},
		{"Title", r.Title},
		{"Status", statusText(r.Status())},
		{"Output", r.OutputDir},
		{"Assets", fmt.Sprintf("%d (%d failed, %d unresolved)", r.Assets.Total, len(r.Assets.Failed), len(r.Assets.Unresolved))},
		{"Network entries", fmt.Sprintf("%d", len(r.Network))},
		{"Screenshots", fmt.Sprintf("%d", len(r.Screenshots))},
		{"Colors", fmt.Sprintf("%d", len(r.DesignTokens.Colors))},
	}
	pterm.DefaultTable.WithData(data).Render()

	counts := pterm.TableData{{"Category", "Saved"}}
	for _, c := range snapshot.Categories() {
		if n := len(r.Assets.Available[c]); n > 0 {
			counts = append(counts, []string{string(c), fmt.Sprintf("%d", n)})
		}
	}
	if len(counts) > 1 {
		pterm.DefaultTable.WithHasHeader().WithData(counts).Render()
	}

	if r.NavigationIncomplete {
		pterm.Warning.Println("Navigation did not complete; the page may be partial")
	}
	for name, msg := range r.ExtractionErrors {
		pterm.Warning.Printf("Extraction %s: %s\n", name, msg)
	}
	if r.Error != "" {
		pterm.Error.Println(r.Error)
		return
	}
	pterm.Success.Printf("Snapshot written to %s\n", r.OutputDir)
}

func statusText(s string) string {
	switch s {
	case "ok":
		return pterm.FgGreen.Sprint(s)
	case "partial":
		return pterm.FgYellow.Sprint(s)
	default:
		return pterm.FgRed.Sprint(s)
	}
}
