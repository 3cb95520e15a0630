package download_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"curadiff/internal/download"
	"curadiff/internal/testsupport"
)

func TestTargetName(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "https://portal.example/files/alice/GSE1.meta/", want: "GSE1.meta.alice"},
		{url: "https://portal.example/files/alice/GSE1.meta", want: "GSE1.meta.alice"},
		{url: "https://portal.example/files/GSE1.GPL570.processed.gz/", want: "GSE1.GPL570.processed.gz"},
		{url: "https://portal.example/files/x.gz?token=1", want: "x.gz"},
		{url: "https://portal.example/", wantErr: true},
		{url: "https://portal.example/GSE1.meta", wantErr: true},
		{url: "https://portal.example/.meta/", want: ".meta"},
	}
	for _, tc := range tests {
		got, err := download.TargetName(tc.url)
		if tc.wantErr {
			if !errors.Is(err, download.ErrInvalidURL) {
				t.Fatalf("TargetName(%q) expected ErrInvalidURL, got %q, %v", tc.url, got, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("TargetName(%q) = %q, %v; want %q", tc.url, got, err, tc.want)
		}
	}
}

func TestReadURLListSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	testsupport.WriteText(t, path, "  https://a/x  \n\n\t\nhttps://b/y\n")

	urls, err := download.ReadURLList(path)
	if err != nil {
		t.Fatalf("ReadURLList: %v", err)
	}
	if len(urls) != 2 || urls[0] != "https://a/x" || urls[1] != "https://b/y" {
		t.Fatalf("unexpected urls %q", urls)
	}
}

func TestFetchDownloadsWithSession(t *testing.T) {
	var flaky atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" || r.Header.Get("Cookie") != "sid=1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Header.Get("User-Agent") != "curadiff/test" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.URL.Path {
		case "/alice/GSE1.meta/":
			_, _ = w.Write([]byte("meta"))
		case "/data/GSE1.GPL1.processed.gz/":
			if flaky.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("matrix"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	list := filepath.Join(dir, "urls.txt")
	testsupport.WriteText(t, list, strings.Join([]string{
		srv.URL + "/alice/GSE1.meta/",
		srv.URL + "/data/GSE1.GPL1.processed.gz/",
		srv.URL + "/data/missing.gz/",
	}, "\n"))

	client, err := download.NewClient(
		download.Session{Token: "tok", Cookie: "sid=1", UserAgent: "curadiff/test"},
		download.WithRetry(3, 0, 0),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	dest := filepath.Join(dir, "raw")
	report, err := client.Fetch(context.Background(), list, dest)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(report.Files) != 2 {
		t.Fatalf("expected 2 files, got %+v", report.Files)
	}
	if len(report.Failures) != 1 || !strings.Contains(report.Failures[0].URL, "missing.gz") {
		t.Fatalf("unexpected failures %+v", report.Failures)
	}
	if report.Err() == nil {
		t.Fatal("expected joined failure error")
	}
	if flaky.Load() != 2 {
		t.Fatalf("expected one retry, got %d requests", flaky.Load())
	}

	meta, err := os.ReadFile(filepath.Join(dest, "GSE1.meta.alice"))
	if err != nil || string(meta) != "meta" {
		t.Fatalf("unexpected metadata file %q, %v", meta, err)
	}
	matrix, err := os.ReadFile(filepath.Join(dest, "GSE1.GPL1.processed.gz"))
	if err != nil || string(matrix) != "matrix" {
		t.Fatalf("unexpected matrix file %q, %v", matrix, err)
	}
	if report.Files[0].SHA256 == "" || report.Files[0].Bytes != 4 {
		t.Fatalf("unexpected file record %+v", report.Files[0])
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	dir := t.TempDir()
	list := filepath.Join(dir, "urls.txt")
	testsupport.WriteText(t, list, srv.URL+"/x/file.gz\n")

	client, err := download.NewClient(download.Session{}, download.WithRetry(3, 0, 0))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	report, err := client.Fetch(context.Background(), list, dir)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(report.Failures) != 1 || hits.Load() != 1 {
		t.Fatalf("expected a single failed attempt, got %d hits, %+v", hits.Load(), report)
	}
}

func TestFetchStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "urls.txt")
	testsupport.WriteText(t, list, "https://portal.example/a/file.gz\n")

	client, err := download.NewClient(download.Session{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Fetch(ctx, list, dir); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSessionAnonymous(t *testing.T) {
	if !(download.Session{UserAgent: "x"}).Anonymous() {
		t.Fatal("expected anonymous session")
	}
	if (download.Session{Cookie: "a=b"}).Anonymous() {
		t.Fatal("expected authenticated session")
	}
}

func TestSessionFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSession("tok", "sid=1"))
	session := download.SessionFromConfig(cfg)
	if session.Token != "tok" || session.Cookie != "sid=1" || session.UserAgent != cfg.Download.UserAgent {
		t.Fatalf("unexpected session %+v", session)
	}
	if session.Anonymous() {
		t.Fatal("configured session should not be anonymous")
	}
}
