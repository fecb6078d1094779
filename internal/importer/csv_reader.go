// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

package importer

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	// DuckDB driver - read_csv is part of the core engine
	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"github.com/tomtom215/e6tracker/internal/logging"
	"github.com/tomtom215/e6tracker/internal/models"
)

// requiredColumns must be present in every posts export.
var requiredColumns = []string{
	"id", "uploader_id", "approver_id", "created_at", "rating", "description",
	"file_ext", "file_size", "parent_id", "change_seq", "is_deleted", "is_pending",
	"comment_count", "fav_count", "score", "up_score", "down_score",
}

// optionalColumns are read when present.
var optionalColumns = []string{"md5", "tag_string"}

// ReaderOptions configures an ExportReader.
type ReaderOptions struct {
	// TagsPath is the tags CSV (name, category). Empty disables tag sets.
	TagsPath string

	// StaticBaseURL derives file and preview URLs from md5 when set.
	StaticBaseURL string

	// WorkDir receives the staging database and its spill files.
	// Empty means os.TempDir().
	WorkDir string

	// MaxMemory caps the staging database (DuckDB size string).
	MaxMemory string
}

const defaultStagingMemory = "256MB"

// ExportRow is one export row, parsed or failed.
type ExportRow struct {
	RowNum int64
	Record models.PostRecord

	// Err wraps models.ErrMalformedRecord when the row could not be parsed.
	Err error
}

// ExportReader reads a posts export CSV through a scratch DuckDB file.
// The export is staged on disk under a memory cap, so only the chunk
// being read is held in process memory.
type ExportReader struct {
	db            *sql.DB
	dbPath        string
	path          string
	columns       []string
	present       map[string]bool
	categories    map[string]models.TagCategory
	staticBaseURL string
	total         int64
}

// NewExportReader loads the export at path and checks its header.
func NewExportReader(ctx context.Context, path string, opts ReaderOptions) (*ExportReader, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	maxMemory := opts.MaxMemory
	if maxMemory == "" {
		maxMemory = defaultStagingMemory
	}
	dbPath := filepath.Join(workDir, "e6tracker-export-"+uuid.NewString()+".duckdb")

	// One thread keeps row_number() in file order.
	connStr := fmt.Sprintf("%s?threads=1&max_memory=%s&temp_directory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		dbPath, url.QueryEscape(maxMemory), url.QueryEscape(dbPath+".tmp"))
	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open staging database: %w", err)
	}
	db.SetMaxOpenConns(1)

	r := &ExportReader{
		db:            db,
		dbPath:        dbPath,
		path:          path,
		staticBaseURL: strings.TrimRight(opts.StaticBaseURL, "/"),
	}
	if err := r.load(ctx); err != nil {
		closeQuietly(r)
		return nil, err
	}
	if opts.TagsPath != "" {
		if r.categories, err = loadTagCategories(ctx, db, opts.TagsPath); err != nil {
			closeQuietly(r)
			return nil, err
		}
	}

	logging.Ctx(ctx).Info().
		Str("path", path).
		Str("staging", dbPath).
		Str("max_memory", maxMemory).
		Int64("rows", r.total).
		Bool("tags", r.categories != nil).
		Bool("urls", r.present["md5"] && r.staticBaseURL != "").
		Msg("Export loaded")
	return r, nil
}

// sqlString quotes s as a SQL string literal.
func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (r *ExportReader) load(ctx context.Context) error {
	query := `CREATE TABLE export_rows AS
		SELECT row_number() OVER () AS row_num, *
		FROM read_csv(` + sqlString(r.path) + `, header = true, all_varchar = true)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("read export %s: %w", r.path, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT lower(column_name) FROM information_schema.columns WHERE table_name = 'export_rows'`)
	if err != nil {
		return fmt.Errorf("inspect export columns: %w", err)
	}
	defer closeWithLog(rows, "export columns")

	r.present = make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan export column: %w", err)
		}
		r.present[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect export columns: %w", err)
	}

	var missing []string
	for _, col := range requiredColumns {
		if !r.present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("export %s is missing columns: %s", r.path, strings.Join(missing, ", "))
	}

	r.columns = append([]string(nil), requiredColumns...)
	for _, col := range optionalColumns {
		if r.present[col] {
			r.columns = append(r.columns, col)
		}
	}

	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM export_rows`).Scan(&r.total); err != nil {
		return fmt.Errorf("count export rows: %w", err)
	}
	return nil
}

// loadTagCategories reads name -> category from a tags export. Rows with
// an untracked category code are dropped.
func loadTagCategories(ctx context.Context, db *sql.DB, path string) (map[string]models.TagCategory, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, category FROM read_csv(`+sqlString(path)+`, header = true, all_varchar = true)`)
	if err != nil {
		return nil, fmt.Errorf("read tags export %s: %w", path, err)
	}
	defer closeWithLog(rows, "tags export")

	categories := make(map[string]models.TagCategory)
	dropped := 0
	for rows.Next() {
		var name, code sql.NullString
		if err := rows.Scan(&name, &code); err != nil {
			return nil, fmt.Errorf("scan tags export: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(code.String))
		if err != nil || !name.Valid || name.String == "" {
			dropped++
			continue
		}
		c, ok := models.CategoryFromExportCode(n)
		if !ok {
			dropped++
			continue
		}
		categories[name.String] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tags export %s: %w", path, err)
	}

	logging.Debug().Int("tags", len(categories)).Int("dropped", dropped).Msg("Tag categories loaded")
	return categories, nil
}

// Total returns the number of data rows.
func (r *ExportReader) Total() int64 { return r.total }

// Columns returns the columns read from the export, sorted.
func (r *ExportReader) Columns() []string {
	cols := append([]string(nil), r.columns...)
	sort.Strings(cols)
	return cols
}

// ReadChunk returns up to limit rows after row number afterRow.
func (r *ExportReader) ReadChunk(ctx context.Context, afterRow int64, limit int) ([]ExportRow, error) {
	quoted := make([]string, len(r.columns))
	for i, col := range r.columns {
		quoted[i] = `"` + col + `"`
	}
	query := `SELECT row_num, ` + strings.Join(quoted, ", ") + `
		FROM export_rows WHERE row_num > ? ORDER BY row_num LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, afterRow, limit)
	if err != nil {
		return nil, fmt.Errorf("read export rows after %d: %w", afterRow, err)
	}
	defer closeWithLog(rows, "export rows")

	var out []ExportRow
	values := make([]sql.NullString, len(r.columns))
	dest := make([]interface{}, len(r.columns)+1)
	for i := range values {
		dest[i+1] = &values[i]
	}

	for rows.Next() {
		var row ExportRow
		dest[0] = &row.RowNum
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		fields := make(map[string]sql.NullString, len(r.columns))
		for i, col := range r.columns {
			fields[col] = values[i]
		}
		row.Record, row.Err = r.parse(row.RowNum, fields)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read export rows after %d: %w", afterRow, err)
	}
	return out, nil
}

// Close releases the staging database and removes its files.
func (r *ExportReader) Close() error {
	err := r.db.Close()
	for _, p := range []string{r.dbPath, r.dbPath + ".wal", r.dbPath + ".tmp"} {
		if rmErr := os.RemoveAll(p); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

// rowParser reads typed fields from one row and keeps the first error.
type rowParser struct {
	row    int64
	fields map[string]sql.NullString
	err    error
}

func (p *rowParser) fail(col string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: row %d: column %s: %v", models.ErrMalformedRecord, p.row, col, err)
	}
}

func (p *rowParser) str(col string) string {
	return p.fields[col].String
}

func (p *rowParser) i64(col string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(p.str(col)), 10, 64)
	if err != nil {
		p.fail(col, err)
	}
	return v
}

func (p *rowParser) integer(col string) int {
	return int(p.i64(col))
}

// optInt64 returns nil for an empty or NULL field.
func (p *rowParser) optInt64(col string) *int64 {
	if strings.TrimSpace(p.str(col)) == "" {
		return nil
	}
	v := p.i64(col)
	return &v
}

func (p *rowParser) boolean(col string) bool {
	switch strings.ToLower(strings.TrimSpace(p.str(col))) {
	case "t", "true":
		return true
	case "f", "false":
		return false
	default:
		p.fail(col, fmt.Errorf("invalid boolean %q", p.str(col)))
		return false
	}
}

func (p *rowParser) timestamp(col string) time.Time {
	t, err := models.ParseTimestamp(p.str(col))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("row %d: column %s: %w", p.row, col, err)
	}
	return t
}

func (r *ExportReader) parse(rowNum int64, fields map[string]sql.NullString) (models.PostRecord, error) {
	p := &rowParser{row: rowNum, fields: fields}

	rec := models.PostRecord{
		ID: p.i64("id"),
		PostScalars: models.PostScalars{
			UploaderID:   p.i64("uploader_id"),
			ApproverID:   p.optInt64("approver_id"),
			CreatedAt:    p.timestamp("created_at"),
			Rating:       p.str("rating"),
			Description:  p.str("description"),
			FileExt:      p.str("file_ext"),
			FileSize:     p.i64("file_size"),
			ParentID:     p.optInt64("parent_id"),
			ChangeSeq:    p.i64("change_seq"),
			IsDeleted:    p.boolean("is_deleted"),
			IsPending:    p.boolean("is_pending"),
			CommentCount: p.integer("comment_count"),
			FavCount:     p.integer("fav_count"),
			ScoreTotal:   p.integer("score"),
			ScoreUp:      p.integer("up_score"),
			ScoreDown:    p.integer("down_score"),
		},
	}
	if p.err != nil {
		return models.PostRecord{}, p.err
	}

	if r.categories != nil && r.present["tag_string"] {
		rec.Tags = models.NewTagSet()
		for _, name := range strings.Fields(p.str("tag_string")) {
			if c, ok := r.categories[name]; ok {
				rec.Tags.Add(models.TagKey{Name: name, Category: c})
			}
		}
	}

	if md5 := strings.TrimSpace(p.str("md5")); r.staticBaseURL != "" && len(md5) >= 4 {
		rec.URLs = &models.PostURLs{
			File:    fmt.Sprintf("%s/data/%s/%s/%s.%s", r.staticBaseURL, md5[0:2], md5[2:4], md5, rec.FileExt),
			Preview: fmt.Sprintf("%s/data/preview/%s/%s/%s.jpg", r.staticBaseURL, md5[0:2], md5[2:4], md5),
		}
	}

	if err := rec.Validate(); err != nil {
		return models.PostRecord{}, fmt.Errorf("row %d: %w", rowNum, err)
	}
	return rec, nil
}

// exportSource feeds ExportReader rows to the ingest driver and remembers
// how far it got.
type exportSource struct {
	reader    *ExportReader
	chunkSize int

	after int64
	buf   []ExportRow
	pos   int

	lastRow   int64
	read      int64
	malformed int64
}

func newExportSource(reader *ExportReader, startRow int64, chunkSize int) *exportSource {
	return &exportSource{reader: reader, chunkSize: chunkSize, after: startRow, lastRow: startRow}
}

// Next implements tracker.RecordSource.
func (s *exportSource) Next(ctx context.Context) (models.PostRecord, error) {
	if s.pos >= len(s.buf) {
		rows, err := s.reader.ReadChunk(ctx, s.after, s.chunkSize)
		if err != nil {
			return models.PostRecord{}, err
		}
		if len(rows) == 0 {
			return models.PostRecord{}, io.EOF
		}
		s.buf, s.pos = rows, 0
		s.after = rows[len(rows)-1].RowNum
	}

	row := s.buf[s.pos]
	s.pos++
	s.lastRow = row.RowNum
	s.read++
	if row.Err != nil {
		s.malformed++
		return models.PostRecord{}, row.Err
	}
	return row.Record, nil
}
