package compositor

import (
	"fmt"
	"os"

	"golang.org/x/image/font/gofont/goregular"
)

// LoadFont returns the TTF bytes for the compositor's font: the file at
// path when set, otherwise the embedded Go Regular face. Injecting the font
// here keeps rendering free of process-wide file path assumptions.
func LoadFont(path string) ([]byte, error) {
	if path == "" {
		return goregular.TTF, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	return b, nil
}
