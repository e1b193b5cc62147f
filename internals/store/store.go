// Package store writes pipeline artifacts: result files, metadata records,
// and run summaries. Parent directories are created on demand; the result
// file is always written before its metadata so a partial failure can never
// leave metadata pointing at a missing result.
package store

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Oudwins/scout/internals/oai"
	"github.com/Oudwins/scout/internals/plan"
)

// Metadata is the audit record persisted next to each result file. The
// prompt hash keys reproducibility: same prompt, same hash.
type Metadata struct {
	Task        plan.Task     `json:"task"`
	Model       string        `json:"model"`
	Timestamp   string        `json:"timestamp"`
	ElapsedTime float64       `json:"elapsed_time"`
	TokenUsage  oai.Usage     `json:"token_usage"`
	PromptHash  string        `json:"prompt_hash"`
	Prompt      []oai.Message `json:"prompt"`
	ResultFile  string        `json:"result_file"`
}

// TimestampFormat matches the pipeline's human-readable audit timestamps.
const TimestampFormat = "2006-01-02 15:04:05"

// PromptHash digests the exact prompt string sent to the service.
func PromptHash(prompt string) string {
	sum := md5.Sum([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// WriteText writes content to path, creating parent directories.
func WriteText(content string, path string) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteJSON marshals v with indentation and writes it to path.
func WriteJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return WriteText(string(data)+"\n", path)
}

// ReadJSON reads path into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// ListResultFiles returns the sorted result files under dir, skipping
// metadata records and the run summary.
func ListResultFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == "summary.json" || strings.HasSuffix(name, "_meta.json") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}
