package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// maxLineSize bounds a single JSONL record; catalog entries are small, but
// exported dumps sometimes carry large embedded fields.
const maxLineSize = 16 * 1024 * 1024

// Parse reads a catalog from r. The input is either a single JSON array of
// record objects or line-delimited JSON (one object per line). A record
// that fails to decode is skipped with a diagnostic; only an unreadable
// source or a wholly unparseable input is an error.
func Parse(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err == nil {
			return decodeAll(raws), nil
		}
		log.Warn("catalog is not a valid JSON array, retrying as line-delimited JSON")
	}
	return parseLines(data)
}

func decodeAll(raws []json.RawMessage) []Record {
	records := make([]Record, 0, len(raws))
	for i, raw := range raws {
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			log.Warnf("skipping invalid record at index %d: %v", i, err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func parseLines(data []byte) ([]Record, error) {
	var records []Record
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Warnf("skipping invalid record on line %d: %v", lineNum, err)
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning catalog: %w", err)
	}
	return records, nil
}
