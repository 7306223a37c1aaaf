// Package ingest reads target-list files and normalizes profile URLs
// before they reach the store.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/jonesrussell/linkreach/internal/outreach"
)

// profilePathPattern matches the path of a member profile URL.
var profilePathPattern = regexp.MustCompile(`^/in/[A-Za-z0-9\-_%.]+/?$`)

// NormalizeURL validates and canonicalizes a profile URL: https scheme,
// lowercased host, no query, no trailing slash. Returns a validation
// error for anything that is not a profile URL.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty URL", outreach.ErrValidation)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: unparseable URL %q", outreach.ErrValidation, raw)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme in %q", outreach.ErrValidation, raw)
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host != "linkedin.com" {
		return "", fmt.Errorf("%w: not a profile URL: %q", outreach.ErrValidation, raw)
	}

	path := strings.TrimSuffix(u.Path, "/")
	if !profilePathPattern.MatchString(path + "/") {
		return "", fmt.Errorf("%w: not a profile URL: %q", outreach.ErrValidation, raw)
	}

	return "https://www.linkedin.com" + path, nil
}

// ReadTargetFile reads profile URLs from a file. CSV files use their
// first column (a header row named url/profile/link is skipped); any
// other file is treated as one URL per line. Invalid rows are returned
// separately, not silently dropped.
func ReadTargetFile(path string) (urls []string, invalid []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cannot read target file %s: %v", outreach.ErrValidation, path, err)
	}
	defer f.Close()

	var raw []string
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		raw, err = readCSV(f)
	} else {
		raw, err = readLines(f)
	}
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]struct{})
	for _, entry := range raw {
		normalized, normErr := NormalizeURL(entry)
		if normErr != nil {
			invalid = append(invalid, entry)
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		urls = append(urls, normalized)
	}

	return urls, invalid, nil
}

func readCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var out []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed CSV: %v", outreach.ErrValidation, err)
		}
		if len(record) == 0 {
			continue
		}

		first := strings.TrimSpace(record[0])
		if first == "" || isHeader(first) {
			continue
		}
		out = append(out, first)
	}

	return out, nil
}

func readLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read target file: %w", err)
	}

	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}

	return out, nil
}

func isHeader(field string) bool {
	switch strings.ToLower(field) {
	case "url", "urls", "profile", "profile_url", "link":
		return true
	default:
		return false
	}
}
