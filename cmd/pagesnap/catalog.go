package main

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent captures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, release, err := newCapturer(cfg)
		if err != nil {
			return err
		}
		defer release()

		entries, err := c.List(cmd.Context(), listLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			pterm.Info.Println("No captures yet. Use 'pagesnap capture <url>' to create one.")
			return nil
		}
		pterm.DefaultSection.Println("Captures")
		data := pterm.TableData{{"ID", "Status", "URL", "Title", "Assets", "Finished"}}
		for _, e := range entries {
			data = append(data, []string{
				e.ID, statusText(e.Status), e.URL, truncate(e.Title, 40),
				fmt.Sprintf("%d/%d", e.AssetCount, e.AssetCount+e.FailedCount),
				e.FinishedAt.Local().Format(time.DateTime),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one capture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, release, err := newCapturer(cfg)
		if err != nil {
			return err
		}
		defer release()

		rep, err := c.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printReport(rep)

		if len(rep.Phases) > 0 {
			data := pterm.TableData{{"Phase", "Started", "Duration", "Error"}}
			for _, p := range rep.Phases {
				data = append(data, []string{
					string(p.Phase), p.StartedAt.Local().Format(time.TimeOnly),
					(time.Duration(p.DurationMS) * time.Millisecond).String(), p.Error,
				})
			}
			pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		}
		if len(rep.Assets.Failed) > 0 {
			data := pterm.TableData{{"Failed asset", "Category", "Error"}}
			for _, a := range rep.Assets.Failed {
				data = append(data, []string{truncate(a.URL, 80), string(a.Category), a.Error})
			}
			pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		}
		return nil
	},
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "max captures")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
