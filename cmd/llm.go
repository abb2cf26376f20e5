package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/parlami/internal/llm"
	"github.com/abhisek/parlami/internal/store"
)

var (
	headStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded tutor completions and their cost",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent completions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		return withEventLog(cmd, func(ctx context.Context, events *store.EventLog) error {
			list, err := events.QueryLLMEvents(ctx, store.QueryOpts{Limit: limit, Purpose: purpose})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No completions recorded.")
				return nil
			}

			t := newTable("ID", "When", "Purpose", "Model", "In", "Out", "Ms", "OK")
			for _, e := range list {
				ok := "yes"
				if !e.Success {
					ok = "no"
				}
				t.Row(strconv.Itoa(e.ID), stamp(e.Timestamp), e.Purpose, clip(e.Model, 28),
					strconv.Itoa(e.InputTokens), strconv.Itoa(e.OutputTokens),
					strconv.FormatInt(e.LatencyMs, 10), ok)
			}
			fmt.Fprintln(out, t.String())
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		return withEventLog(cmd, func(ctx context.Context, events *store.EventLog) error {
			e, err := events.GetLLMEvent(ctx, id)
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("no completion with id %d", id)
			}

			out := cmd.OutOrStdout()
			fields := [][2]string{
				{"When", stamp(e.Timestamp)},
				{"Provider", e.Provider},
				{"Model", e.Model},
				{"Purpose", e.Purpose},
				{"Tokens", fmt.Sprintf("%d in, %d out", e.InputTokens, e.OutputTokens)},
				{"Latency", fmt.Sprintf("%dms", e.LatencyMs)},
				{"Success", strconv.FormatBool(e.Success)},
			}
			if e.ErrorMessage != "" {
				fields = append(fields, [2]string{"Error", e.ErrorMessage})
			}
			for _, f := range fields {
				fmt.Fprintf(out, "%-9s %s\n", f[0]+":", f[1])
			}
			section(out, "Prompt", e.RequestBody)
			section(out, "Reply", e.ResponseBody)
			return nil
		})
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage per purpose and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEventLog(cmd, func(ctx context.Context, events *store.EventLog) error {
			byPurpose, err := events.LLMUsageByPurpose(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(byPurpose) == 0 {
				fmt.Fprintln(out, "No completions recorded.")
				return nil
			}

			var calls, in, outTok int
			usage := newTable("Purpose", "Calls", "Input", "Output", "Avg ms")
			for _, st := range byPurpose {
				usage.Row(st.Purpose, strconv.Itoa(st.Calls), strconv.Itoa(st.InputTokens),
					strconv.Itoa(st.OutputTokens), strconv.FormatInt(st.AvgLatencyMs, 10))
				calls, in, outTok = calls+st.Calls, in+st.InputTokens, outTok+st.OutputTokens
			}
			usage.Row("total", strconv.Itoa(calls), strconv.Itoa(in), strconv.Itoa(outTok), "")
			fmt.Fprintln(out, usage.String())

			byModel, err := events.LLMUsageByModel(ctx)
			if err != nil {
				return err
			}
			if len(byModel) == 0 {
				return nil
			}

			var total float64
			var unpriced []string
			costs := newTable("Model", "Calls", "Input", "Output", "USD")
			for _, mu := range byModel {
				price := "?"
				if c := llm.LookupCost(mu.Model); c != nil {
					usd := c.Cost(mu.InputTokens, mu.OutputTokens)
					total += usd
					price = dollars(usd)
				} else {
					unpriced = append(unpriced, mu.Model)
				}
				costs.Row(clip(mu.Model, 32), strconv.Itoa(mu.Calls), strconv.Itoa(mu.InputTokens),
					strconv.Itoa(mu.OutputTokens), price)
			}
			label := "total"
			if len(unpriced) > 0 {
				label = "total (partial)"
			}
			costs.Row(label, "", "", "", dollars(total))
			fmt.Fprintln(out)
			fmt.Fprintln(out, costs.String())
			if len(unpriced) > 0 {
				fmt.Fprintf(out, "No pricing for: %s\n", strings.Join(unpriced, ", "))
			}
			return nil
		})
	},
}

// withEventLog opens the configured store and hands its event log to fn.
func withEventLog(cmd *cobra.Command, fn func(ctx context.Context, events *store.EventLog) error) error {
	a, err := openApp(cmd, false, "warn")
	if err != nil {
		return err
	}
	defer closeApp(a)
	if a.Events == nil {
		return fmt.Errorf("the %s store keeps no event log; use the sqlite or redis driver", a.Config.Store.Driver)
	}
	return fn(cmd.Context(), a.Events)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle
			}
			return cellStyle
		})
}

func section(w io.Writer, title, body string) {
	if body == "" {
		body = "(not captured)"
	}
	fmt.Fprintf(w, "\n%s\n%s\n%s\n", headStyle.Render(title), strings.Repeat("─", 60), body)
}

func stamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func dollars(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of completions to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show one purpose (e.g. tutor-chat)")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
