// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/e6tracker/internal/models"
)

const postsCSV = `id,uploader_id,approver_id,created_at,rating,description,file_ext,file_size,parent_id,change_seq,is_deleted,is_pending,comment_count,fav_count,score,up_score,down_score,md5,tag_string
1,10,,2007-02-10 04:53:12.802804,s,first,png,100,,5,f,f,0,3,2,3,-1,abcdef0123,fox canine
2,10,11,2007-02-11 04:53:12,q,second,jpg,200,1,6,f,f,1,4,5,6,-1,0123abcd,fox
`

const tagsCSV = `id,name,category,post_count
1,fox,0,10
2,canine,5,10
`

// isolate points configuration at a scratch directory. Commands share
// package-level flag state, so these tests do not run in parallel.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yaml"))
	t.Setenv("DOTENV_PATH", filepath.Join(dir, "missing.env"))
	t.Setenv("DUCKDB_PATH", filepath.Join(dir, "e6tracker.duckdb"))
	t.Setenv("IMPORT_PROGRESS_PATH", filepath.Join(dir, "progress"))
	t.Setenv("E621_USERNAME", "")
	t.Setenv("E621_API_KEY", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"import": false, "import-legacy": false, "sync": false, "stats": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestImportThenStats(t *testing.T) {
	dir := isolate(t)
	posts := writeFile(t, dir, "posts.csv", postsCSV)
	tags := writeFile(t, dir, "tags.csv", tagsCSV)

	out, err := execute(t, "import", "--path", posts, "--tags-path", tags, "--fresh")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var summary map[string]interface{}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode import output %q: %v", out, err)
	}
	if summary["imported"] != float64(2) || summary["status"] != "completed" {
		t.Errorf("import summary = %v", summary)
	}

	out, err = execute(t, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var sum models.StoreSummary
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("decode stats output %q: %v", out, err)
	}
	if sum.Posts != 2 || sum.Tags != 2 || sum.PostTags != 3 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestImportLegacyRequiresPath(t *testing.T) {
	isolate(t)
	t.Setenv("IMPORT_LEGACY_DB_PATH", "")
	legacyFlags.dbPath = ""

	_, err := execute(t, "import-legacy")
	if err == nil || !strings.Contains(err.Error(), "no legacy database") {
		t.Errorf("err = %v, want missing path error", err)
	}
}
