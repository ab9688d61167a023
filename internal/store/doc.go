// Package store keeps every participant record in an in-memory index and
// mirrors it to RecordsPath/<key>.yml, one YAML document per record. The
// index is the source of truth for reads; each Set/Delete schedules a per-key
// sync job that writes the current in-memory value (temp file + rename) or
// removes the file, so the directory converges on the index even when jobs
// run out of order. Durability is best-effort: write failures are logged and
// counted, never reported back to the caller.
package store
