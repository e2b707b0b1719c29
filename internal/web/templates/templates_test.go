package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/propscrub/internal/billing"
	"github.com/JonMunkholm/propscrub/internal/core"
	"github.com/JonMunkholm/propscrub/internal/scrub"
)

func TestErrorAlert_Escapes(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert(`<script>alert(1)</script>`, "Try again", "ERR000").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Errorf("message was not escaped: %s", out)
	}
	if !strings.Contains(out, "(ERR000)") || !strings.Contains(out, "Try again") {
		t.Errorf("missing code or action: %s", out)
	}
}

func TestIndex_HidesUnavailableFeatures(t *testing.T) {
	tests := []struct {
		name       string
		caps       core.Capabilities
		wantPrison bool
		wantCRM    bool
	}{
		{"basic only", core.Capabilities{}, false, false},
		{"everything", core.Capabilities{PrisonTier: true, CRM: true}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Index(IndexParams{
				Capabilities: tt.caps,
				Balance:      &core.BalanceInfo{Balance: billing.Balance{Bubbles: 40, BarsOfSoap: 2}, Options: billing.PurchaseOptions},
				MaxFileSize:  50 << 20,
			}).Render(context.Background(), &buf)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			out := buf.String()

			if got := strings.Contains(out, `value="prison"`); got != tt.wantPrison {
				t.Errorf("prison option present = %v, want %v", got, tt.wantPrison)
			}
			if got := strings.Contains(out, `id="export-ghl"`); got != tt.wantCRM {
				t.Errorf("GHL export present = %v, want %v", got, tt.wantCRM)
			}
			if !strings.Contains(out, "40 bubbles") || !strings.Contains(out, "50 MB") {
				t.Errorf("balance or size hint missing")
			}
		})
	}
}

func TestResultsTable(t *testing.T) {
	schema, err := scrub.NewSchema(1, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	row := scrub.NewCleanedRow(scrub.Record{
		scrub.FieldFirstName:       "Ann & Co",
		scrub.FieldLastName:        "Lee",
		"Phone":                    "555-0100",
		"Email":                    "ann@example.com",
		scrub.FieldPropertyAddress: "12 Oak St",
	}, schema)

	res := &core.Results{
		Fields:   scrub.ExportFields(schema, scrub.TierBasic, false),
		Rows:     []scrub.CleanedRow{row},
		Stats:    scrub.Stats{Total: 3, Showing: 3, Excluded: 0},
		Page:     1,
		PageSize: 1,
	}

	var buf bytes.Buffer
	if err := ResultsTable(res).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{"<th>Property Address</th>", "Ann &amp; Co", "Page 1 of 3", `data-page="2"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "Previous") {
		t.Error("first page should not link back")
	}
}

func TestHistoryTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := HistoryTable(nil).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No scrubs yet") {
		t.Errorf("got %q", buf.String())
	}
}

func TestHistoryTable_Rows(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	runs := []core.RunRecord{
		{FileName: "austin.csv", Tier: scrub.TierBasic, Status: core.PhaseComplete, TotalRows: 120, KeptRows: 97, CostBubbles: 30, StartedAt: start, FinishedAt: start.Add(6 * time.Second)},
		{FileName: "dallas.xlsx", Tier: scrub.TierPrison, Status: core.PhaseFailed, Error: "lookup <timeout>", StartedAt: start, FinishedAt: start.Add(time.Second)},
	}

	var buf bytes.Buffer
	if err := HistoryTable(runs).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<tr class="status-complete">`,
		`<tr class="status-failed">`,
		`title="lookup &lt;timeout&gt;"`,
		"<td>2024-03-01 09:30</td>",
		"<td>97</td>",
		"<td>6s</td>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Count(out, "title=") != 1 {
		t.Errorf("only the failed run should carry a title: %s", out)
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		showing, size, want int
	}{
		{0, 25, 1},
		{25, 25, 1},
		{26, 25, 2},
		{10, 0, 1},
	}
	for _, tt := range tests {
		res := &core.Results{Stats: scrub.Stats{Showing: tt.showing}, PageSize: tt.size}
		if got := pageCount(res); got != tt.want {
			t.Errorf("pageCount(showing=%d, size=%d) = %d, want %d", tt.showing, tt.size, got, tt.want)
		}
	}
}
