package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horse.fit/briefing/internal/dedup"
	"horse.fit/briefing/internal/rundiff"
)

const testNow = "2026-01-25T15:00:00Z"

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BRIEFING_ENV_FILE", "")
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DEDUP_TITLE_THRESHOLD", "0.70")
	t.Setenv("DEDUP_RANK_BY", "combined")
	t.Setenv("DEDUP_CLUSTER_MODE", "seed")
	t.Setenv("DEDUP_MAX_ITEMS", "5000")
	t.Setenv("DEDUP_INFER_SOURCE_TYPES", "true")
	t.Setenv("SOURCE_CATALOG_FILE", "")
}

func runCLI(t *testing.T, input string, args ...string) (int, string, string) {
	t.Helper()

	var out, errOut bytes.Buffer
	prevIn, prevOut, prevErr := stdin, stdout, stderr
	stdin, stdout, stderr = strings.NewReader(input), &out, &errOut
	t.Cleanup(func() {
		stdin, stdout, stderr = prevIn, prevOut, prevErr
	})

	code := Run(args)
	return code, out.String(), errOut.String()
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const sampleBatch = `{"stories":[
	{"title":"DOOM on Earbud","url":"https://example.com/doom?utm_source=hn","source":"Hacker News","heat":"120 points","time":"1 hour ago"},
	{"title":"DOOM on Earbud","url":"https://www.example.com/doom/","source":"Reddit r/programming","heat":"2.5k upvotes"},
	{"title":"Central bank holds rates","url":"https://techcrunch.com/rates","source":"TechCrunch","time":"2026-01-20T10:00:00Z"}
]}`

func TestRun_Usage(t *testing.T) {
	code, _, errOut := runCLI(t, "")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "briefing <command>")

	code, _, _ = runCLI(t, "", "help")
	assert.Equal(t, 0, code)

	code, _, errOut = runCLI(t, "", "launch")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown command: launch")
}

func TestRunDedup_JSON(t *testing.T) {
	setTestEnv(t)

	code, out, errOut := runCLI(t, sampleBatch, "dedup", "--now", testNow)
	require.Equal(t, 0, code, errOut)

	var result dedup.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, dedup.Meta{RawItems: 3, AfterDedup: 2, DuplicatesMerged: 1, SourcesScanned: 3}, result.Meta)
	require.Len(t, result.Stories, 2)
	assert.Equal(t, 2, result.Stories[0].SourceCount)
	assert.Equal(t, "Central bank holds rates", result.Stories[1].Title)
	assert.Equal(t, "original_reporting", string(result.Stories[1].SourceType))
}

func TestRunDedup_InputFileAndTable(t *testing.T) {
	setTestEnv(t)

	path := filepath.Join(t.TempDir(), "batch.json")
	mustWriteFile(t, path, sampleBatch)

	code, out, errOut := runCLI(t, "", "dedup", "--input", path, "--now", testNow, "--format", "table", "--rank-by", "signals")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "DOOM on Earbud")
	assert.Contains(t, out, "raw_items=3 after_dedup=2 duplicates_merged=1 sources_scanned=3")
	assert.Contains(t, out, "Jan 20, 2026 10:00 AM UTC")
	assert.Contains(t, out, "AGE")
	assert.Contains(t, out, "125.0h")
	assert.Contains(t, out, "1.0h")
}

func TestRunDedup_BlankSourceIsKept(t *testing.T) {
	setTestEnv(t)
	t.Setenv("LOG_LEVEL", "warn")

	batch := `[{"title":"Orphan item","url":"https://example.com/o","source":"  "},{"title":"Other","url":"https://example.com/p","source":"A"}]`
	code, out, errOut := runCLI(t, batch, "dedup", "--now", testNow)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, errOut, "item has no source")

	var result dedup.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2, result.Meta.AfterDedup)
	var sources []string
	for _, story := range result.Stories {
		sources = append(sources, story.Sources...)
	}
	assert.Contains(t, sources, "Unknown")
}

func TestRunDedup_UnionFindFlag(t *testing.T) {
	setTestEnv(t)

	batch := `[
		{"title":"Alpha headline","url":"https://example.com/story","source":"A"},
		{"title":"Bravo words","url":"https://example.com/story/","source":"B","content":"identical body"},
		{"title":"Charlie text","url":"https://elsewhere.example/c","source":"C","content":"identical body"}
	]`

	code, out, _ := runCLI(t, batch, "dedup", "--now", testNow)
	require.Equal(t, 0, code)
	var seed dedup.Result
	require.NoError(t, json.Unmarshal([]byte(out), &seed))
	assert.Equal(t, 2, seed.Meta.AfterDedup)

	code, out, _ = runCLI(t, batch, "dedup", "--now", testNow, "--cluster", "union-find")
	require.Equal(t, 0, code)
	var joined dedup.Result
	require.NoError(t, json.Unmarshal([]byte(out), &joined))
	assert.Equal(t, 1, joined.Meta.AfterDedup)
}

func TestRunDedup_Errors(t *testing.T) {
	setTestEnv(t)

	code, _, errOut := runCLI(t, `[{"title":"no source"}]`, "dedup")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Invalid input")

	code, _, _ = runCLI(t, sampleBatch, "dedup", "--rank-by", "loudest")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, sampleBatch, "dedup", "--cluster", "kmeans")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, sampleBatch, "dedup", "--now", "yesterday")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, sampleBatch, "dedup", "--format", "yaml")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, sampleBatch, "dedup", "extra")
	assert.Equal(t, 2, code)

	t.Setenv("DEDUP_MAX_ITEMS", "2")
	code, _, errOut = runCLI(t, sampleBatch, "dedup")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "DEDUP_MAX_ITEMS")
}

func TestRunDedup_CatalogOverride(t *testing.T) {
	setTestEnv(t)

	catalog := filepath.Join(t.TempDir(), "sources.yaml")
	mustWriteFile(t, catalog, "sources:\n  TechCrunch: wire\n")

	code, out, errOut := runCLI(t, sampleBatch, "dedup", "--now", testNow, "--catalog", catalog)
	require.Equal(t, 0, code, errOut)

	var result dedup.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Stories, 2)
	assert.Equal(t, "wire", string(result.Stories[1].SourceType))

	t.Setenv("DEDUP_INFER_SOURCE_TYPES", "false")
	code, out, _ = runCLI(t, sampleBatch, "dedup", "--now", testNow)
	require.Equal(t, 0, code)
	var untyped dedup.Result
	require.NoError(t, json.Unmarshal([]byte(out), &untyped))
	require.Len(t, untyped.Stories, 2)
	assert.Empty(t, untyped.Stories[1].SourceType)
}

func TestRunClassify(t *testing.T) {
	setTestEnv(t)

	code, out, errOut := runCLI(t, "", "classify",
		"--left", `{"title":"Rust 2.0 released","source":"A"}`,
		"--right", `{"title":"Rust 2.0 is released","source":"B"}`,
		"--now", testNow,
	)
	require.Equal(t, 0, code, errOut)

	var verdict classifyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &verdict))
	assert.Equal(t, dedup.ConfidenceMedium, verdict.Confidence)
	assert.True(t, verdict.Duplicate)
	assert.Equal(t, "rust 2 0 released", verdict.Left.NormalizedTitle)

	code, out, _ = runCLI(t, "", "classify",
		"--left", `{"title":"Rust 2.0 released","source":"A"}`,
		"--right", `{"title":"Rust 2.0 is released","source":"B"}`,
		"--threshold", "0.95",
	)
	require.Equal(t, 0, code)
	var strict classifyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &strict))
	assert.Equal(t, dedup.ConfidenceMedium, strict.Confidence)
	assert.False(t, strict.Duplicate)

	code, _, _ = runCLI(t, "", "classify", "--left", `{"source":"A"}`)
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "", "classify", "--left", `not json`, "--right", `{}`)
	assert.Equal(t, 2, code)
}

func TestRunDiff(t *testing.T) {
	dir := t.TempDir()
	previous := filepath.Join(dir, "previous.json")
	current := filepath.Join(dir, "current.json")
	mustWriteFile(t, previous, `{"stories":[{"title":"A","url":"https://example.com/a","sources":["X"]},{"title":"Gone","url":"https://example.com/g","sources":["Y"]}],"meta":{}}`)
	mustWriteFile(t, current, `[{"title":"New","url":"https://example.com/n","sources":["Z"]},{"title":"A","url":"https://example.com/a","sources":["X"]}]`)

	code, out, errOut := runCLI(t, "", "diff", "--current", current, "--previous", previous)
	require.Equal(t, 0, code, errOut)

	var diff rundiff.Diff
	require.NoError(t, json.Unmarshal([]byte(out), &diff))
	assert.Equal(t, rundiff.Summary{NewCount: 1, DroppedCount: 1, ChangedCount: 1}, diff.Summary)

	code, out, _ = runCLI(t, "", "diff", "--current", current, "--previous", previous, "--format", "table")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "dropped")
	assert.Contains(t, out, "new=1 dropped=1 changed=1")

	code, _, _ = runCLI(t, "", "diff", "--current", current)
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, "", "diff", "--current", filepath.Join(dir, "missing.json"), "--previous", previous)
	assert.Equal(t, 1, code)
}

func TestRunValidate(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "good.json"), sampleBatch)
	mustWriteFile(t, filepath.Join(root, "nested", "bad.json"), `[{"title":"missing source"}]`)

	code, out, errOut := runCLI(t, "", "validate", "--dir", root)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "scanned=2 valid=1 invalid=1 items=3")
	assert.Contains(t, errOut, "INVALID")

	code, out, _ = runCLI(t, "", "validate", "--dir", root, "--recursive=false")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "scanned=1 valid=1 invalid=0")

	code, _, _ = runCLI(t, "", "validate", "--dir", t.TempDir())
	assert.Equal(t, 1, code)

	blankDir := t.TempDir()
	mustWriteFile(t, filepath.Join(blankDir, "blank.json"), `[{"title":"x","source":""}]`)
	code, out, errOut = runCLI(t, "", "validate", "--dir", blankDir)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "valid=1 invalid=0")
	assert.Contains(t, errOut, "1 item(s) without source")
}
