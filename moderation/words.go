package moderation

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed words/*.txt
var wordFiles embed.FS

// DefaultWords loads the embedded word lists, one word per line, blank
// lines and '#' comments skipped.
func DefaultWords() ([]string, error) {
	entries, err := wordFiles.ReadDir("words")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var words []string
	for _, entry := range entries {
		f, err := wordFiles.Open("words/" + entry.Name())
		if err != nil {
			return nil, err
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			w := strings.TrimSpace(scanner.Text())
			if w == "" || strings.HasPrefix(w, "#") {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			words = append(words, w)
		}
		_ = f.Close()
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}
	return words, nil
}
