package moderation

import (
	"bufio"
	"bytes"
	"chispa/errors"
	"embed"
	"io/fs"
	"strings"

	"github.com/abadojack/whatlanggo"
)

//go:embed censored/*
var censoredFS embed.FS

// CensoredData is the parsed word list plus the languages it was built from,
// kept for startup logging.
type CensoredData struct {
	Words     []string
	Languages []string
}

// LoadEmbedded parses the per-language dictionaries embedded with the binary.
// Each censored/{lang}.txt file holds one word per line.
func LoadEmbedded() (*CensoredData, error) {
	entries, err := fs.ReadDir(censoredFS, "censored")
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := censoredFS.ReadFile("censored/" + entry.Name())
		if err != nil {
			return nil, err
		}

		// A scanner handles both \n and \r\n endings.
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				uniqueWords[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}
	return &CensoredData{Words: words, Languages: languages}, nil
}

// DetectLang returns the ISO 639-1 code of the text's detected language,
// used for moderation logging. Empty when detection is unreliable.
func DetectLang(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
