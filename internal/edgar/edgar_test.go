package edgar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"filingscan/internal/util"
)

const sampleIndex = `Description:           Daily Index of EDGAR Dissemination Feed by Company Name
Last Data Received:    March 1, 2024
Comments:              webmaster@sec.gov
Anonymous FTP:         ftp://ftp.sec.gov/edgar/

CIK|Company Name|Form Type|Date Filed|Filename
--------------------------------------------------------------------------------
0000320193|Apple Inc|8-K|2024-03-01|edgar/data/320193/abc.txt
1000045|NICHOLAS FINANCIAL INC|4|20240301|edgar/data/1000045/0001.txt
1000097|KINGDON CAPITAL MANAGEMENT|SC 13G|2024-03-01|edgar/data/1000097/0002.txt
1000209|MEDALLION FINANCIAL CORP|DEF 14A|03/01/2024|edgar/data/1000209/0003.txt
1000228|HENRY SCHEIN INC|8-K|2024-03-01
1000229|CORE LABORATORIES INC|8-K|2024-03-01|edgar/data/1000229/0004.txt|extra
1000275|ROYAL BANK OF CANADA|13D|2024-03-01|edgar/data/1000275/0005.txt
`

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(Options{
		BaseURL:   srv.URL,
		UserAgent: "filingscan-test test@example.com",
		Logger:    util.Discard(),
	})
	return c, srv
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

func TestParseIndexAppleScenario(t *testing.T) {
	raw := "CIK|Company Name|Form Type|Date Filed|Filename\n" +
		"0000320193|Apple Inc|8-K|2024-03-01|edgar/data/320193/abc.txt\n"

	var recs []string
	for rec := range ParseIndex(raw, NewFormSet([]string{"8-K"})) {
		if rec.CIK != "0000320193" {
			t.Errorf("CIK = %q, want 0000320193", rec.CIK)
		}
		if got := rec.FilingDate.Format("2006-01-02"); got != "2024-03-01" {
			t.Errorf("FilingDate = %s, want 2024-03-01", got)
		}
		if rec.CompanyName != "Apple Inc" || rec.DocumentPath != "edgar/data/320193/abc.txt" {
			t.Errorf("unexpected record %+v", rec)
		}
		recs = append(recs, rec.CIK)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
}

func TestParseIndexFiltersAndSkips(t *testing.T) {
	forms := NewFormSet([]string{"8-K", "4", "13D", "DEF 14A"})

	var got []string
	for rec := range ParseIndex(sampleIndex, forms) {
		got = append(got, rec.CIK+"/"+rec.FormType+"/"+rec.FilingDate.Format("2006-01-02"))
	}

	want := []string{
		"0000320193/8-K/2024-03-01",
		"0001000045/4/2024-03-01",
		"0001000275/13D/2024-03-01",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("records = %v, want %v", got, want)
	}
}

func TestParseIndexDateEncodingsAgree(t *testing.T) {
	forms := NewFormSet([]string{"8-K"})
	a := "CIK|Company Name|Form Type|Date Filed|Filename\n1|A|8-K|2024-12-31|p\n"
	b := "CIK|Company Name|Form Type|Date Filed|Filename\n1|A|8-K|20241231|p\n"

	var da, db []string
	for r := range ParseIndex(a, forms) {
		da = append(da, r.FilingDate.String())
	}
	for r := range ParseIndex(b, forms) {
		db = append(db, r.FilingDate.String())
	}
	if len(da) != 1 || len(db) != 1 || da[0] != db[0] {
		t.Errorf("date encodings disagree: %v vs %v", da, db)
	}
}

func TestParseIndexNoHeader(t *testing.T) {
	raw := "0000320193|Apple Inc|8-K|2024-03-01|edgar/data/320193/abc.txt\n"
	for range ParseIndex(raw, NewFormSet([]string{"8-K"})) {
		t.Fatal("expected no records without a header line")
	}
}

func TestParseIndexRestartable(t *testing.T) {
	seq := ParseIndex(sampleIndex, NewFormSet([]string{"8-K", "4", "13D"}))
	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	first, second := count(), count()
	if first != 3 || second != first {
		t.Errorf("ranging twice gave %d then %d records, want 3 both times", first, second)
	}

	// Early termination must not panic.
	for range seq {
		break
	}
}

func TestParseIndexCRLF(t *testing.T) {
	raw := "CIK|Company Name|Form Type|Date Filed|Filename\r\n1|A|8-K|2024-03-01|edgar/data/1/x.txt\r\n"
	n := 0
	for rec := range ParseIndex(raw, NewFormSet([]string{"8-K"})) {
		n++
		if rec.DocumentPath != "edgar/data/1/x.txt" {
			t.Errorf("DocumentPath = %q", rec.DocumentPath)
		}
	}
	if n != 1 {
		t.Errorf("got %d records, want 1", n)
	}
}

func TestParseIndexIndentedHeader(t *testing.T) {
	raw := "Description: Daily Index of EDGAR Dissemination Feed\n\n" +
		"   CIK|Company Name|Form Type|Date Filed|Filename  \n" +
		"--------------------------------------------------------------------------------\n" +
		"0000320193|Apple Inc|8-K|2024-03-01|edgar/data/320193/abc.txt\n"
	n := 0
	for rec := range ParseIndex(raw, NewFormSet([]string{"8-K"})) {
		n++
		if rec.CIK != "0000320193" {
			t.Errorf("CIK = %q", rec.CIK)
		}
	}
	if n != 1 {
		t.Errorf("got %d records, want 1", n)
	}
}

func TestPadCIK(t *testing.T) {
	cases := map[string]string{
		"320193":       "0000320193",
		"0000320193":   "0000320193",
		" 1 ":          "0000000001",
		"123456789012": "123456789012",
	}
	for in, want := range cases {
		if got := PadCIK(in); got != want {
			t.Errorf("PadCIK(%q) = %q, want %q", in, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// Index fetcher
// ---------------------------------------------------------------------------

func TestIndexURL(t *testing.T) {
	c := NewClient(Options{UserAgent: "x x@example.com"})
	cases := map[string]string{
		"2024-03-01": "https://www.sec.gov/Archives/edgar/daily-index/2024/QTR1/master.20240301.idx",
		"2024-04-01": "https://www.sec.gov/Archives/edgar/daily-index/2024/QTR2/master.20240401.idx",
		"2023-12-29": "https://www.sec.gov/Archives/edgar/daily-index/2023/QTR4/master.20231229.idx",
	}
	for day, want := range cases {
		d, _ := time.Parse("2006-01-02", day)
		if got := c.IndexURL(d); got != want {
			t.Errorf("IndexURL(%s) = %s, want %s", day, got, want)
		}
	}
}

func TestFetchIndex(t *testing.T) {
	var gotUA string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		if r.URL.Path != "/Archives/edgar/daily-index/2024/QTR1/master.20240301.idx" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleIndex))
	}))

	raw, err := c.FetchIndex(context.Background(), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchIndex: %v", err)
	}
	if !strings.Contains(raw, "Apple Inc") {
		t.Errorf("unexpected body %q", raw[:40])
	}
	if gotUA != "filingscan-test test@example.com" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestFetchIndexUnavailable(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.FetchIndex(context.Background(), time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Fatalf("err = %v, want ErrIndexUnavailable", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusForbidden {
		t.Fatalf("err = %v, want *StatusError with 403", err)
	}
	if errors.Is(err, ErrFetch) {
		t.Error("index failure should not match ErrFetch")
	}
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

func TestFetchDocument(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Archives/edgar/data/1/ok.txt" {
			w.Write([]byte("entered into a Securities Purchase Agreement"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	if got, want := c.DocumentURL("edgar/data/1/ok.txt"), srv.URL+"/Archives/edgar/data/1/ok.txt"; got != want {
		t.Errorf("DocumentURL = %s, want %s", got, want)
	}

	text, err := c.FetchDocument(context.Background(), "edgar/data/1/ok.txt")
	if err != nil {
		t.Fatalf("FetchDocument: %v", err)
	}
	if !strings.Contains(text, "Securities Purchase Agreement") {
		t.Errorf("text = %q", text)
	}

	_, err = c.FetchDocument(context.Background(), "edgar/data/1/missing.txt")
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
}

func TestPacerSpacesRequests(t *testing.T) {
	var mu sync.Mutex
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, UserAgent: "x x@example.com", RequestInterval: 25 * time.Millisecond, Logger: util.Discard()})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.FetchDocument(context.Background(), "a.txt")
		}()
	}
	wg.Wait()

	if len(stamps) != 4 {
		t.Fatalf("server saw %d requests, want 4", len(stamps))
	}
	if span := stamps[3].Sub(stamps[0]); span < 60*time.Millisecond {
		t.Errorf("4 requests spanned %v, want >= 60ms with 25ms pacing", span)
	}
}

func TestPlainText(t *testing.T) {
	raw := `<SEC-DOCUMENT><TEXT><html><head><title>x</title><style>p{}</style></head>
<body><p>The Company   entered into a <b>Securities Purchase Agreement</b>.</p>
<script>var a = 1;</script></body></html></TEXT></SEC-DOCUMENT>`

	got := PlainText(raw)
	if !strings.Contains(got, "The Company entered into a Securities Purchase Agreement.") {
		t.Errorf("PlainText = %q", got)
	}
	if strings.Contains(got, "var a") || strings.Contains(got, "p{}") {
		t.Errorf("PlainText kept script or style content: %q", got)
	}
}

// ---------------------------------------------------------------------------
// Ticker directory
// ---------------------------------------------------------------------------

const sampleTickers = `{
 "0":{"cik_str":320193,"ticker":"AAPL","title":"Apple Inc."},
 "1":{"cik_str":1652044,"ticker":"GOOGL","title":"Alphabet Inc."},
 "2":{"cik_str":1652044,"ticker":"GOOG","title":"Alphabet Inc."},
 "10":{"cik_str":789019,"ticker":"msft","title":"MICROSOFT CORP"}
}`

func TestParseTickerDirectory(t *testing.T) {
	dir, err := ParseTickerDirectory([]byte(sampleTickers))
	if err != nil {
		t.Fatalf("ParseTickerDirectory: %v", err)
	}

	if tk, ok := dir.Resolve("0000320193"); !ok || tk != "AAPL" {
		t.Errorf("Resolve(0000320193) = %q, %v", tk, ok)
	}
	if tk, ok := dir.Resolve("320193"); !ok || tk != "AAPL" {
		t.Errorf("Resolve(320193) = %q, %v", tk, ok)
	}
	// Last write wins in file order.
	if tk, _ := dir.Resolve("1652044"); tk != "GOOG" {
		t.Errorf("Resolve(1652044) = %q, want GOOG", tk)
	}
	if cik, ok := dir.CIK("MSFT"); !ok || cik != "0000789019" {
		t.Errorf("CIK(MSFT) = %q, %v", cik, ok)
	}
	if _, ok := dir.Resolve("0000000042"); ok {
		t.Error("unknown CIK should not resolve")
	}
	if dir.Len() != 3 {
		t.Errorf("Len = %d, want 3", dir.Len())
	}
}

func TestFetchTickerDirectory(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/company_tickers.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleTickers))
	}))

	dir, err := c.FetchTickerDirectory(context.Background())
	if err != nil {
		t.Fatalf("FetchTickerDirectory: %v", err)
	}
	if _, ok := dir.Resolve("320193"); !ok {
		t.Error("expected AAPL to resolve")
	}
}

func TestEmptyTickerDirectory(t *testing.T) {
	if _, ok := EmptyTickerDirectory().Resolve("320193"); ok {
		t.Error("empty directory resolved a CIK")
	}
}
