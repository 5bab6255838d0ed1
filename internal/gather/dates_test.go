package gather

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filingscan/internal/domain"
)

func formatDates(t *testing.T, input string) string {
	t.Helper()
	dates, err := ReadDates(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadDates: %v", err)
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(domain.DateLayout)
	}
	return strings.Join(out, ",")
}

func TestReadDatesPlainList(t *testing.T) {
	got := formatDates(t, "2024-03-01\n# holiday week\n20240304\n\n03/05/2024\n2024-03-01\n")
	if want := "2024-03-01,2024-03-04,2024-03-05"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestReadDatesHeaderColumn(t *testing.T) {
	input := "ticker,Date,note\nAAPL,2024-03-01,x\nMSFT, 2024-03-02,y\nGOOG,,empty\n"
	if got, want := formatDates(t, input), "2024-03-01,2024-03-02"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestReadDatesBadLine(t *testing.T) {
	_, err := ReadDates(strings.NewReader("2024-03-01\nnot-a-date\n"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q should name line 2", err)
	}
}

func TestReadDatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dates.csv")
	if err := os.WriteFile(path, []byte("date\n2024-01-02\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dates, err := ReadDatesFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 1 || dates[0].Format(domain.DateLayout) != "2024-01-02" {
		t.Errorf("dates = %v", dates)
	}

	if _, err := ReadDatesFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
