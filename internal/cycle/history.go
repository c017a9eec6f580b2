package cycle

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// History appends each cycle's report to a JSON-lines file so the daily
// digest can aggregate runs after restarts. Appends are line-atomic; a
// truncated trailing line from a crash is skipped on read.
type History struct {
	path string
}

func NewHistory(dir string) *History {
	return &History{path: filepath.Join(dir, "cycles.jsonl")}
}

func (h *History) Append(stats *Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// Day returns every run that started on the given calendar day.
func (h *History) Day(day time.Time) ([]*Stats, error) {
	f, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	year, month, date := day.Date()

	var runs []*Stats
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var stats Stats
		if err := json.Unmarshal(scanner.Bytes(), &stats); err != nil {
			continue
		}
		y, m, d := stats.StartedAt.Date()
		if y == year && m == month && d == date {
			runs = append(runs, &stats)
		}
	}
	return runs, scanner.Err()
}
