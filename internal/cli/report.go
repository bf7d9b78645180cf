package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/noah-isme/sentiment-probe/internal/dto"
	"github.com/noah-isme/sentiment-probe/internal/models"
	"github.com/noah-isme/sentiment-probe/internal/observability"
	"github.com/noah-isme/sentiment-probe/internal/service"
)

const (
	formatTable    = "table"
	formatMarkdown = "markdown"
	formatJSON     = "json"

	textColumnWidth = 48
)

func validFormat(format string) bool {
	switch format {
	case formatTable, formatMarkdown, formatJSON:
		return true
	}
	return false
}

func writeScore(w io.Writer, format string, result dto.ScoreResponse, metrics observability.MetricsSnapshot) error {
	switch format {
	case formatJSON:
		return writeJSON(w, struct {
			Result  dto.ScoreResponse             `json:"result"`
			Metrics observability.MetricsSnapshot `json:"metrics"`
		}{result, metrics})
	case formatMarkdown:
		fmt.Fprintln(w, "| Score | Label | Latency (ms) | Warning |")
		fmt.Fprintln(w, "|---|---|---|---|")
		fmt.Fprintf(w, "| %.3f | %s | %.1f | %s |\n", result.Score, result.Label, result.LatencyMs, result.Warning)
		return nil
	default:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SCORE\tLABEL\tLATENCY\tWARNING")
		fmt.Fprintf(tw, "%.3f\t%s\t%.1fms\t%s\n", result.Score, result.Label, result.LatencyMs, result.Warning)
		return tw.Flush()
	}
}

func writeBatch(w io.Writer, format string, summary dto.BatchSummary, metrics observability.MetricsSnapshot) error {
	switch format {
	case formatJSON:
		return writeJSON(w, struct {
			Summary dto.BatchSummary              `json:"summary"`
			Metrics observability.MetricsSnapshot `json:"metrics"`
		}{summary, metrics})
	case formatMarkdown:
		return writeBatchMarkdown(w, summary, metrics)
	default:
		return writeBatchTable(w, summary, metrics)
	}
}

func writeBatchTable(w io.Writer, summary dto.BatchSummary, metrics observability.MetricsSnapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTEXT\tGOLD\tSCORE\tPRED\tOK\tLATENCY\tNOTE")
	fmt.Fprintln(tw, strings.Repeat("-", 100))
	for idx, row := range summary.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%.1fms\t%s\n",
			idx+1, shorten(row.Text, textColumnWidth), row.Gold, scoreCell(row), predCell(row), okCell(row), row.LatencyMs, noteCell(row))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nn=%d correct=%d accuracy=%.1f%% avg_latency=%.1fms\n",
		summary.ItemCount, summary.CorrectCount, summary.Accuracy*100, summary.AvgLatencyMs)

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GOLD \\ PRED\t"+strings.Join(confusionColumns(), "\t"))
	for _, gold := range models.Labels {
		fmt.Fprintf(tw, "%s\t%s\n", gold, strings.Join(confusionCounts(summary, gold), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	return writeMetricsLine(w, metrics)
}

func writeBatchMarkdown(w io.Writer, summary dto.BatchSummary, metrics observability.MetricsSnapshot) error {
	fmt.Fprintln(w, "| # | Text | Gold | Score | Pred | OK | Latency (ms) | Note |")
	fmt.Fprintln(w, "|---|---|---|---|---|---|---|---|")
	for idx, row := range summary.Rows {
		fmt.Fprintf(w, "| %d | %s | %s | %s | %s | %s | %.1f | %s |\n",
			idx+1, escapePipes(row.Text), row.Gold, scoreCell(row), predCell(row), okCell(row), row.LatencyMs, escapePipes(noteCell(row)))
	}

	fmt.Fprintf(w, "\n**Accuracy:** %.1f%% (%d/%d), **avg latency:** %.1f ms\n\n",
		summary.Accuracy*100, summary.CorrectCount, summary.ItemCount, summary.AvgLatencyMs)

	columns := confusionColumns()
	fmt.Fprintf(w, "| Gold \\ Pred | %s |\n", strings.Join(columns, " | "))
	fmt.Fprintf(w, "|---|%s\n", strings.Repeat("---|", len(columns)))
	for _, gold := range models.Labels {
		fmt.Fprintf(w, "| %s | %s |\n", gold, strings.Join(confusionCounts(summary, gold), " | "))
	}

	fmt.Fprintln(w)
	return writeMetricsLine(w, metrics)
}

func writeMetricsLine(w io.Writer, metrics observability.MetricsSnapshot) error {
	_, err := fmt.Fprintf(w, "calls: total=%d success=%d failed=%d last=%s avg=%s p95=%s\n",
		metrics.TotalRequests, metrics.SuccessRequests, metrics.FailedRequests,
		optionalMs(metrics.LastLatencyMs), optionalMs(metrics.AvgLatencyMs), optionalMs(metrics.P95LatencyMs))
	return err
}

func writeJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func confusionColumns() []string {
	columns := make([]string, 0, len(models.Labels)+1)
	for _, label := range models.Labels {
		columns = append(columns, string(label))
	}
	return append(columns, service.PredErrorKey)
}

func confusionCounts(summary dto.BatchSummary, gold models.Label) []string {
	row := summary.Confusion[string(gold)]
	counts := make([]string, 0, len(models.Labels)+1)
	for _, column := range confusionColumns() {
		counts = append(counts, fmt.Sprintf("%d", row[column]))
	}
	return counts
}

func scoreCell(row dto.BatchRow) string {
	if row.Score == nil {
		return "-"
	}
	return fmt.Sprintf("%.3f", *row.Score)
}

func predCell(row dto.BatchRow) string {
	if row.Pred == nil {
		return "-"
	}
	return string(*row.Pred)
}

func okCell(row dto.BatchRow) string {
	if row.Correct {
		return "yes"
	}
	return "no"
}

func noteCell(row dto.BatchRow) string {
	if row.Error != nil {
		return *row.Error
	}
	return row.Warning
}

func optionalMs(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1fms", *value)
}

func shorten(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

func escapePipes(text string) string {
	return strings.ReplaceAll(text, "|", `\|`)
}
