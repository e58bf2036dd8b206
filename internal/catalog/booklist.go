package catalog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/maktaba/bookcrawler/internal/crawler"
)

// LoadBookList reads the set of books to crawl. Three formats are accepted:
// a JSON array of IDs (numbers or strings), a JSON array of objects in the
// discovery-file shape (book_id/title/author_id/author_name, where metadata
// rides along on the job), or a plain text file with one ID per line where
// blank lines and lines starting with '#' are skipped. Duplicate IDs are
// collapsed, first occurrence wins.
func LoadBookList(path string) ([]crawler.BookJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read book list: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return parseJSONList(data)
	}
	return parseTextList(trimmed)
}

func parseJSONList(data []byte) ([]crawler.BookJob, error) {
	var raw []json.Number
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err == nil {
		ids := make([]string, 0, len(raw))
		for _, n := range raw {
			ids = append(ids, n.String())
		}
		return dedupe(ids)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err == nil {
		return dedupe(ids)
	}

	// Discovery-file shape: objects carrying their own metadata.
	var entries []bookEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse book list JSON: %w", err)
	}
	jobs := make([]crawler.BookJob, 0, len(entries))
	for _, e := range entries {
		jobs = append(jobs, crawler.BookJob{
			BookID:     e.key(),
			Title:      e.Title,
			AuthorID:   e.AuthorID.String(),
			AuthorName: e.AuthorName,
		})
	}
	return dedupeJobs(jobs)
}

func parseTextList(content string) ([]crawler.BookJob, error) {
	var ids []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan book list: %w", err)
	}
	return dedupe(ids)
}

func dedupe(ids []string) ([]crawler.BookJob, error) {
	jobs := make([]crawler.BookJob, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, crawler.BookJob{BookID: id})
	}
	return dedupeJobs(jobs)
}

func dedupeJobs(jobs []crawler.BookJob) ([]crawler.BookJob, error) {
	seen := make(map[string]bool, len(jobs))
	out := make([]crawler.BookJob, 0, len(jobs))
	for _, job := range jobs {
		job.BookID = strings.TrimSpace(job.BookID)
		if job.BookID == "" {
			return nil, fmt.Errorf("book list contains an empty ID")
		}
		if seen[job.BookID] {
			continue
		}
		seen[job.BookID] = true
		out = append(out, job)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("book list is empty")
	}
	return out, nil
}
