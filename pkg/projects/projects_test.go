package projects

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	errs "github.com/lockgraph/lockgraph/pkg/errors"
	"github.com/lockgraph/lockgraph/pkg/integrations/github"
)

func TestParseList(t *testing.T) {
	in := "Commits,name,URL\n" +
		"10,express,https://github.com/expressjs/express\n" +
		"3,,https://github.com/a/b\n" +
		"4,lodash, https://github.com/lodash/lodash \n"
	list, err := ParseList(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []Project{
		{"express", "https://github.com/expressjs/express"},
		{"lodash", "https://github.com/lodash/lodash"},
	}
	if !slices.Equal(list, want) {
		t.Errorf("ParseList = %v, want %v", list, want)
	}
}

func TestParseList_Errors(t *testing.T) {
	tests := []string{
		"",
		"Name,Stars\nexpress,1\n",
		"Name,Url\n\"unterminated,x\n",
	}
	for _, in := range tests {
		if _, err := ParseList(strings.NewReader(in)); !errs.Is(err, errs.ErrCodeInvalidInput) {
			t.Errorf("ParseList(%q) err = %v, want INVALID_INPUT", in, err)
		}
	}
}

func TestReadList_Missing(t *testing.T) {
	_, err := ReadList(filepath.Join(t.TempDir(), "none.csv"))
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"express":       "express.json",
		"socket.io":     "socket.io.json",
		"vercel/next":   "vercel_next.json",
		" spaced name ": "spaced name.json",
	}
	for in, want := range tests {
		if got := FileName(in); got != want {
			t.Errorf("FileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSample(t *testing.T) {
	list := []Project{{"a", "u1"}, {"b", "u2"}, {"a", "u3"}, {"c", "u4"}}
	rng := rand.New(rand.NewPCG(1, 2))

	var names []string
	for p := range Sample(list, rng) {
		names = append(names, p.Name)
	}
	slices.Sort(names)
	if !slices.Equal(names, []string{"a", "b", "c"}) {
		t.Errorf("Sample visited %v, want each name once", names)
	}
}

func TestSample_Deterministic(t *testing.T) {
	list := make([]Project, 20)
	for i := range list {
		list[i] = Project{Name: fmt.Sprint(i), URL: "u"}
	}
	collect := func() []string {
		var out []string
		for p := range Sample(list, rand.New(rand.NewPCG(7, 7))) {
			out = append(out, p.Name)
		}
		return out
	}
	if a, b := collect(), collect(); !slices.Equal(a, b) {
		t.Errorf("same seed gave %v and %v", a, b)
	}
}

type fakeFetcher map[string]error

func (f fakeFetcher) Fetch(_ context.Context, url string, _ bool) ([]byte, error) {
	if err, ok := f[url]; ok {
		return nil, err
	}
	return []byte(`{"lockfileVersion":3,"packages":{}}`), nil
}

func TestCollect(t *testing.T) {
	list := []Project{
		{"hit1", "https://github.com/o/hit1"},
		{"miss", "https://github.com/o/miss"},
		{"hit2", "https://github.com/o/hit2"},
		{"bad", "https://github.com/o/bad"},
		{"hit3", "https://github.com/o/hit3"},
	}
	fetcher := fakeFetcher{
		"https://github.com/o/miss": errs.Wrap(errs.ErrCodeNoData, github.ErrNoLockfile, "o/miss"),
		"https://github.com/o/bad":  fmt.Errorf("boom"),
	}
	dir := t.TempDir()
	c := &Collector{
		Fetcher: fetcher,
		Dir:     dir,
		Target:  2,
		Rand:    rand.New(rand.NewPCG(3, 4)),
		Logger:  log.New(io.Discard),
	}

	report, err := c.Collect(context.Background(), list)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Saved) != 2 {
		t.Fatalf("saved %d files, want 2", len(report.Saved))
	}
	for _, path := range report.Saved {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("saved file %s: %v", path, err)
		}
		if filepath.Dir(path) != dir {
			t.Errorf("file %s outside %s", path, dir)
		}
	}
	for _, name := range report.Missing {
		if name != "miss" {
			t.Errorf("unexpected missing project %q", name)
		}
	}
	for _, name := range report.Failed {
		if name != "bad" {
			t.Errorf("unexpected failed project %q", name)
		}
	}
}

func TestCollect_ExhaustsList(t *testing.T) {
	list := []Project{
		{"hit", "https://github.com/o/hit"},
		{"miss", "https://github.com/o/miss"},
	}
	fetcher := fakeFetcher{"https://github.com/o/miss": github.ErrNoLockfile}

	attempts := 0
	c := &Collector{
		Fetcher:  fetcher,
		Dir:      t.TempDir(),
		Target:   10,
		Progress: func(int, Project, error) { attempts++ },
	}
	report, err := c.Collect(context.Background(), list)
	if err != nil {
		t.Fatal(err)
	}
	if attempts != 2 || len(report.Saved) != 1 || len(report.Missing) != 1 {
		t.Errorf("attempts = %d, report = %+v", attempts, report)
	}
}

func TestCollect_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &Collector{Fetcher: fakeFetcher{}, Dir: t.TempDir()}
	if _, err := c.Collect(ctx, []Project{{"a", "u"}}); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
