// Package dictionary exports the word list to a file and imports it back,
// which is how a word list moves between machines.
package dictionary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/japaniel/wordlens/pkg/logger"
	"github.com/japaniel/wordlens/pkg/vocab"
)

// Supported file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// File is the exported document. Words keeps the storage layout, one entry
// per lowercase word.
type File struct {
	Words vocab.Vocab `json:"words" yaml:"words" toml:"words"`
}

// FormatFromPath guesses the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Export writes v to w in the given format.
func Export(w io.Writer, v vocab.Vocab, format string) error {
	if v == nil {
		v = vocab.Vocab{}
	}
	doc := File{Words: v}
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.Indent = ""
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// Load parses an exported file. Both the {"words": {...}} document and a
// bare word mapping are accepted. Keys that are not valid words are skipped
// with a warning; negative counts are reset to zero with a warning.
func Load(r io.Reader, format string) (vocab.Vocab, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc File
	var bare vocab.Vocab
	switch format {
	case FormatJSON, "":
		// Try parsing as full object wrapper first { "words": {...} }
		if err := json.Unmarshal(raw, &doc); err != nil || doc.Words == nil {
			if err := json.Unmarshal(raw, &bare); err != nil {
				return nil, fmt.Errorf("failed to parse word list as document or mapping: %w", err)
			}
			doc.Words = bare
		}
	case FormatYAML:
		if err := yaml.NewDecoder(bytes.NewReader(raw)).Decode(&doc); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to parse yaml word list: %w", err)
		}
		if doc.Words == nil {
			if err := yaml.Unmarshal(raw, &bare); err != nil {
				return nil, fmt.Errorf("failed to parse yaml word list: %w", err)
			}
			doc.Words = bare
		}
	case FormatTOML:
		if _, err := toml.Decode(string(raw), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse toml word list: %w", err)
		}
		if doc.Words == nil {
			if _, err := toml.Decode(string(raw), &bare); err != nil {
				return nil, fmt.Errorf("failed to parse toml word list: %w", err)
			}
			doc.Words = bare
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	out := make(vocab.Vocab, len(doc.Words))
	for word, e := range doc.Words {
		key := strings.ToLower(strings.TrimSpace(word))
		if !vocab.Valid(key) {
			logger.L().Warn("skipping invalid word", zap.String("word", word))
			continue
		}
		if e.Count < 0 {
			logger.L().Warn("resetting negative count", zap.String("word", key), zap.Int("count", e.Count))
			e.Count = 0
		}
		out[key] = e
	}
	return out, nil
}

// LoadFile reads path, picking the format from its extension.
func LoadFile(path string) (vocab.Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, FormatFromPath(path))
}
