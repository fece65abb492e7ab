package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/rows"
	"github.com/matzehuels/lineage/pkg/settings"
)

const ordersQuery = "SELECT * FROM main.sales.orders"

const ordersJSON = `{
  "columns": ["region", "country"],
  "rows": [
    {"region": "EMEA", "country": "DE"},
    {"region": "EMEA", "country": "FR"},
    {"region": "APAC", "country": "JP"}
  ]
}`

// testEnv is a CLI wired to a temporary config, cache and settings directory.
type testEnv struct {
	cli         *CLI
	dir         string
	rowsPath    string
	settingsDir string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dir:         dir,
		rowsPath:    filepath.Join(dir, "orders.json"),
		settingsDir: filepath.Join(dir, "settings"),
	}
	cfg := fmt.Sprintf("[cache]\nbackend = \"file\"\ndir = %q\n\n[settings]\ndir = %q\n",
		filepath.Join(dir, "cache"), env.settingsDir)

	cfgPath := filepath.Join(dir, "lineage.toml")
	for path, content := range map[string]string{cfgPath: cfg, env.rowsPath: ordersJSON} {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	env.cli = New(io.Discard, LogInfo)
	env.cli.configPath = cfgPath
	return env
}

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"region", []string{"region"}},
		{"region, country ,,city", []string{"region", "country", "city"}},
	}
	for _, tt := range tests {
		if got := parseList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("parseList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseClick(t *testing.T) {
	tests := []struct {
		in        string
		wantLabel string
		wantLevel int
		wantErr   bool
	}{
		{"EMEA@0", "EMEA", 0, false},
		{"ops@example.com@2", "ops@example.com", 2, false},
		{"@1", "", 1, false},
		{"EMEA", "", 0, true},
		{"EMEA@first", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			label, level, err := parseClick(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Errorf("err = %v, want INVALID_INPUT", err)
				}
				return
			}
			if err != nil || label != tt.wantLabel || level != tt.wantLevel {
				t.Errorf("parseClick(%q) = %q, %d, %v", tt.in, label, level, err)
			}
		})
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		formats []string
		want    map[string]string
	}{
		{"default", "", []string{"svg"}, map[string]string{"svg": "out/orders.svg"}},
		{"explicit single", "x.png", []string{"png"}, map[string]string{"png": "x.png"}},
		{"several from input", "", []string{"dot", "svg"}, map[string]string{"dot": "out/orders.dot", "svg": "out/orders.svg"}},
		{"several with extension", "r/g.svg", []string{"svg", "pdf"}, map[string]string{"svg": "r/g.svg", "pdf": "r/g.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.output, "out/orders.json", tt.formats)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for f, p := range tt.want {
				if got[f] != p {
					t.Errorf("%s: %q, want %q", f, got[f], p)
				}
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	if err := validateFormats(parseFormats("dot,svg,pdf,png")); err != nil {
		t.Errorf("valid formats rejected: %v", err)
	}
	if err := validateFormats([]string{"svg", "json"}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
	if got := parseFormats(""); !slices.Equal(got, []string{"svg"}) {
		t.Errorf("parseFormats(\"\") = %v", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:       "0 B",
		1023:    "1023 B",
		1536:    "1.5 KiB",
		5 << 20: "5.0 MiB",
	}
	for n, want := range tests {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("SELECT *\n  FROM t", 20); got != "SELECT * FROM t" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("got %q", got)
	}
}

func TestRunFetchWritesGraph(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(env.dir, "graph.json")

	err := env.cli.runFetch(context.Background(), ordersQuery, fetchOpts{
		source:    sourceFlags{file: env.rowsPath},
		output:    out,
		hierarchy: "region,country",
		clicks:    []string{"EMEA@0"},
	})
	if err != nil {
		t.Fatal(err)
	}

	g, err := graph.ReadGraphFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if g.Title != "Orders Lineage" {
		t.Errorf("title = %q", g.Title)
	}
	// root, EMEA, APAC and the attribute leaf under EMEA
	if len(g.Nodes) != 4 {
		t.Fatalf("got %d nodes, want 4", len(g.Nodes))
	}
	var attrs *graph.Node
	for i := range g.Nodes {
		if g.Nodes[i].IsAttributes() {
			attrs = &g.Nodes[i]
		}
	}
	if attrs == nil || !slices.Equal(attrs.Attributes, []string{"DE", "FR"}) {
		t.Errorf("attribute node = %+v", attrs)
	}

	fc, err := env.cli.fileCache()
	if err != nil {
		t.Fatal(err)
	}
	if stats, _ := fc.Stats(); stats.Entries != 1 {
		t.Errorf("cache entries = %d, want 1", stats.Entries)
	}
}

func TestRunFetchRows(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(env.dir, "rows.json")

	err := env.cli.runFetch(context.Background(), ordersQuery, fetchOpts{
		source:  sourceFlags{file: env.rowsPath, noCache: true},
		output:  out,
		rawRows: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	rs, err := rows.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Len() != 3 || !slices.Equal(rs.Columns, []string{"region", "country"}) {
		t.Errorf("result set = %+v", rs)
	}
}

func TestRunFetchUsesSavedSettings(t *testing.T) {
	env := newTestEnv(t)
	store, err := settings.NewFileStore(env.settingsDir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := store.Save(ctx, settings.Settings{User: "alice", Query: ordersQuery, Hierarchy: []string{"country"}}); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(env.dir, "graph.json")
	err = env.cli.runFetch(ctx, "", fetchOpts{
		source: sourceFlags{file: env.rowsPath, noCache: true},
		output: out,
		user:   "alice",
	})
	if err != nil {
		t.Fatal(err)
	}

	g, err := graph.ReadGraphFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(g.Levels, []string{"country"}) || len(g.Nodes) != 4 {
		t.Errorf("levels = %v, nodes = %d; want [country] and 4", g.Levels, len(g.Nodes))
	}
}

func TestRunFetchErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	source := sourceFlags{file: env.rowsPath, noCache: true}

	tests := []struct {
		name string
		q    string
		opts fetchOpts
		code errors.Code
	}{
		{"no query", "", fetchOpts{source: source}, errors.ErrCodeInvalidQuery},
		{"unknown column", ordersQuery, fetchOpts{source: source, hierarchy: "city"}, errors.ErrCodeInvalidHierarchy},
		{"bad click", ordersQuery, fetchOpts{source: source, hierarchy: "region", clicks: []string{"EMEA"}}, errors.ErrCodeInvalidInput},
		{"unknown user", "", fetchOpts{source: source, user: "bob"}, errors.ErrCodeSettingsNotFound},
		{"missing file", ordersQuery, fetchOpts{source: sourceFlags{file: filepath.Join(env.dir, "absent.json"), noCache: true}}, errors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.output = filepath.Join(t.TempDir(), "out.json")
			err := env.cli.runFetch(ctx, tt.q, tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"fetch", "render", "explore", "serve", "settings", "cache", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("--config flag missing")
	}
}

func TestCompletion(t *testing.T) {
	for shell := range completionShells {
		t.Run(shell, func(t *testing.T) {
			root := New(io.Discard, LogInfo).RootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			if err := root.Execute(); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out.String(), "lineage") {
				t.Errorf("%s script does not mention lineage", shell)
			}
		})
	}

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"completion", "tcsh"})
	root.SetErr(io.Discard)
	if err := root.Execute(); err == nil {
		t.Error("unknown shell accepted")
	}
}
