package moderation

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
)

//go:embed wordlist/en.txt
var defaultWordList string

// DefaultWords returns the compiled-in English word list.
func DefaultWords() []string {
	return parseWordList(defaultWordList)
}

// LoadFile reads one word per line, ignoring blank lines and
// #-comments.
func LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}

	return parseWordList(string(data)), nil
}

func parseWordList(raw string) []string {
	return lo.FilterMap(strings.Split(raw, "\n"), func(line string, _ int) (string, bool) {
		w := strings.TrimSpace(line)
		return w, w != "" && !strings.HasPrefix(w, "#")
	})
}
