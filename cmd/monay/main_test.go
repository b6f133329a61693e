package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/monayhq/monay/pkg/api"
	"github.com/monayhq/monay/pkg/stats"
)

func setupStore(t *testing.T) {
	t.Helper()
	storeCfg, err := json.Marshal(map[string]string{"path": filepath.Join(t.TempDir(), "monay.db")})
	if err != nil {
		t.Fatalf("encoding store config: %v", err)
	}
	t.Setenv("MONAY_STORE", "sqlite")
	t.Setenv("MONAY_STORE_CONFIG", string(storeCfg))
	t.Setenv("MONAY_TIMEZONE", "UTC")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	registry, err := newRegistry()
	if err != nil {
		t.Fatalf("newRegistry() error: %v", err)
	}

	root := newRootCmd(registry, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err = root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, "", args...)
	if err != nil {
		t.Fatalf("monay %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestParseCommand(t *testing.T) {
	out := mustRun(t, "parse", "--source", "com.tencent.mm", "--title", "微信支付", "已支付¥9.70")

	var tx api.ParsedTransaction
	if err := json.Unmarshal([]byte(out), &tx); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if !tx.Valid {
		t.Fatalf("expected valid transaction, got %s", out)
	}
	if tx.Rule != "wechat-paid" {
		t.Errorf("rule: got %q, want %q", tx.Rule, "wechat-paid")
	}
	if tx.Direction != api.Expense {
		t.Errorf("direction: got %q, want %q", tx.Direction, api.Expense)
	}
	if got := tx.Amount.StringFixed(2); got != "9.70" {
		t.Errorf("amount: got %s, want 9.70", got)
	}
}

func TestParseCommand_RequiresSource(t *testing.T) {
	if _, err := run(t, "", "parse", "已支付¥9.70"); err == nil {
		t.Error("expected error without --source, got nil")
	}
}

func TestBillCommands(t *testing.T) {
	setupStore(t)

	out := mustRun(t, "add", "-d", "expense", "-k", "food", "-a", "23.50", "-n", "午饭", "--at", "2024-05-10 12:00")
	if want := "added bill 1: 支出 餐饮 ¥23.50"; !strings.Contains(out, want) {
		t.Errorf("add output: got %q, want %q", out, want)
	}
	mustRun(t, "add", "-d", "收入", "-k", "工资", "-a", "8000", "--at", "2024-05-10 09:00")

	out = mustRun(t, "list")
	for _, want := range []string{"午饭", "8000.00", "2024-05-10 12:00"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "23.50") > strings.Index(out, "8000.00") {
		t.Errorf("list should be newest first:\n%s", out)
	}

	out = mustRun(t, "stats", "--year", "2024", "--month", "5")
	for _, want := range []string{"2024-05", "8000.00", "23.50", "7976.50", "餐饮"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "export", "--format", "json")
	var bills []api.BillRecord
	if err := json.Unmarshal([]byte(out), &bills); err != nil {
		t.Fatalf("decoding export: %v\n%s", err, out)
	}
	if len(bills) != 2 {
		t.Errorf("exported bills: got %d, want 2", len(bills))
	}

	out = mustRun(t, "delete", "1")
	if !strings.Contains(out, "deleted bill 1") {
		t.Errorf("delete output: got %q", out)
	}
	if _, err := run(t, "", "delete", "1"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("second delete: got %v, want not found error", err)
	}
}

func TestAddCommand_Rejects(t *testing.T) {
	setupStore(t)

	tests := []struct {
		name string
		args []string
	}{
		{"zero amount", []string{"add", "-k", "food", "-a", "0"}},
		{"unparsable amount", []string{"add", "-k", "food", "-a", "abc"}},
		{"bad direction", []string{"add", "-d", "refund", "-k", "food", "-a", "1"}},
		{"bad time", []string{"add", "-k", "food", "-a", "1", "--at", "yesterday"}},
		{"missing category", []string{"add", "-a", "1"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := run(t, "", tc.args...); err == nil {
				t.Errorf("monay %s: expected error, got nil", strings.Join(tc.args, " "))
			}
		})
	}
}

func TestIngestCommand(t *testing.T) {
	setupStore(t)

	input := strings.Join([]string{
		`{"source":"com.eg.android.AlipayGphone","title":"支付宝","body":"支付宝成功付款9.90元。"}`,
		`{"source":"com.example.chat","title":"Alice","body":"付款100元"}`,
		`{"source":"com.tencent.mm","title":"群聊","body":"今晚吃饭?"}`,
	}, "\n")

	out, err := run(t, input, "ingest", "-")
	if err != nil {
		t.Fatalf("ingest: %v\n%s", err, out)
	}
	if want := "stored 1, unparsed 1, rejected 1, failed 0"; !strings.Contains(out, want) {
		t.Errorf("ingest output: got %q, want %q", out, want)
	}
}

func TestExportCommand_UnknownFormat(t *testing.T) {
	setupStore(t)
	if _, err := run(t, "", "export", "--format", "xml"); err == nil {
		t.Error("expected error for unknown format, got nil")
	}
}

func TestPluginsCommand(t *testing.T) {
	out := mustRun(t, "plugins")
	for _, want := range []string{"webhook", "jsonl", "sqlite", "postgres", "max_body_bytes"} {
		if !strings.Contains(out, want) {
			t.Errorf("plugins output missing %q:\n%s", want, out)
		}
	}
}

func TestPluginsCommand_JSON(t *testing.T) {
	out := mustRun(t, "plugins", "--json")

	var infos []pluginInfo
	if err := json.Unmarshal([]byte(out), &infos); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if len(infos) != 4 {
		t.Fatalf("plugins: got %d, want 4", len(infos))
	}
	for _, info := range infos {
		if info.Description == "" {
			t.Errorf("%s %s: empty description", info.Kind, info.Name)
		}
		if info.Schema["type"] != "object" {
			t.Errorf("%s %s schema type: got %v, want object", info.Kind, info.Name, info.Schema["type"])
		}
	}
}

func TestSchemaKeys(t *testing.T) {
	tests := []struct {
		name   string
		schema map[string]any
		want   string
	}{
		{"no properties", map[string]any{"type": "object"}, "-"},
		{"sorted", map[string]any{"properties": map[string]any{"path": nil, "busy_timeout": nil}}, "busy_timeout,path"},
	}
	for _, tt := range tests {
		if got := schemaKeys(tt.schema); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestResolvePeriod(t *testing.T) {
	now := time.Date(2024, time.May, 17, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		year    int
		month   int
		yearSet bool
		want    stats.Period
	}{
		{"default month", 0, 0, false, stats.Period{Year: 2024, Month: time.May}},
		{"whole year", 2023, 0, true, stats.Period{Year: 2023}},
		{"month of current year", 0, 2, false, stats.Period{Year: 2024, Month: time.February}},
		{"explicit month", 2022, 12, true, stats.Period{Year: 2022, Month: time.December}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := resolvePeriod(now, tc.year, tc.month, tc.yearSet)
			if got != tc.want {
				t.Errorf("period: got %+v, want %+v", got, tc.want)
			}
		})
	}
}
