// e6tracker - Personal Favorite Tracker for e621-style Boards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/e6tracker

/*
Package importer loads posts from an offline database export into the local
mirror, and migrates the stats of the legacy tracker's SQLite database.

# Export import

The export is a posts CSV as published by e621-style boards. It is read
through a private in-memory DuckDB instance:

	CREATE TABLE export_rows AS
	SELECT row_number() OVER () AS row_num, *
	FROM read_csv('posts.csv', header = true, all_varchar = true)

Rows are then fetched in keyset order (row_num > last ORDER BY row_num) and
parsed one by one. A row that fails to parse is counted as skipped and never
reaches the store; every other row is handed to the tracker's batch ingest
driver in chunks of import.chunk_size.

Tag categories come from an optional tags CSV (name, category) whose integer
category codes map onto the tracked categories. Without it, rows carry no
tag set and the stored tags of existing posts are left alone.

# Progress

After every committed chunk the last processed row is saved through a
ProgressTracker (BadgerDB in production, in-memory in tests). A restarted
import of the same file resumes after that row. A completed import clears
its progress.

# Legacy import

LegacyImporter reads viewed_list(image_id, is_favorited, is_viewed, my_vote)
from the legacy tracker's SQLite file and upserts one stats row per image.
is_viewed maps onto hidden.
*/
package importer
