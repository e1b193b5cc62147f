// Package synth merges persisted subagent results into one consolidated
// document with a single completion call.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Oudwins/scout/internals/fence"
	"github.com/Oudwins/scout/internals/oai"
	"github.com/Oudwins/scout/internals/store"
)

var ErrNoInputs = errors.New("no subagent outputs found")

const OutputName = "design_decisions.md"

// SourceDocument is one subagent result loaded for synthesis.
type SourceDocument struct {
	Title   string
	Content string
	Format  string
	Path    string
}

// Metadata is the audit record for a synthesis run.
type Metadata struct {
	Timestamp   string    `json:"timestamp"`
	Model       string    `json:"model"`
	ElapsedTime float64   `json:"elapsed_time"`
	TokenUsage  oai.Usage `json:"token_usage"`
	PromptHash  string    `json:"prompt_hash"`
	InputFiles  []string  `json:"input_files"`
	OutputFile  string    `json:"output_file"`
}

type Result struct {
	OutputPath string
	MetaPath   string
}

type Options struct {
	InputDir    string
	OutputDir   string
	Template    string
	Model       string
	Temperature float64
	DryRun      bool
}

// CompletionClient matches the oai client surface the synthesizer needs.
type CompletionClient interface {
	Complete(ctx context.Context, request oai.ChatRequest) (*oai.ChatResponse, error)
}

type Synthesizer struct {
	client CompletionClient
}

func New(client CompletionClient) *Synthesizer {
	return &Synthesizer{client: client}
}

// LoadSources reads every result file under dir, pairing each with its
// metadata title where a metadata record exists.
func LoadSources(dir string) ([]SourceDocument, error) {
	files, err := store.ListResultFiles(dir)
	if err != nil {
		return nil, err
	}

	var sources []SourceDocument
	for _, path := range files {
		content, err := readFile(path)
		if err != nil {
			slog.Error("failed to load subagent output", "path", path, "error", err)
			continue
		}

		ext := filepath.Ext(path)
		title := filepath.Base(path)
		metaPath := strings.TrimSuffix(path, ext) + "_meta.json"
		var meta store.Metadata
		if err := store.ReadJSON(metaPath, &meta); err == nil && meta.Task.Title != "" {
			title = meta.Task.Title
		}

		sources = append(sources, SourceDocument{
			Title:   title,
			Content: content,
			Format:  strings.TrimPrefix(ext, "."),
			Path:    path,
		})
	}
	return sources, nil
}

// BuildPrompt concatenates the template with every source, each tagged with
// its title and quoted in a fenced block.
func BuildPrompt(sources []SourceDocument, template string) string {
	var b strings.Builder
	b.WriteString(template)
	b.WriteString("\n\n### Subagent Outputs\n\n")
	for i, source := range sources {
		fmt.Fprintf(&b, "#### %d. %s\n\n", i+1, source.Title)
		fmt.Fprintf(&b, "```%s\n%s\n```\n\n", source.Format, source.Content)
	}
	return b.String()
}

// Run performs the synthesis. Extraction is best-effort: when no Markdown
// block can be located the raw response is still saved as the output.
func (s *Synthesizer) Run(ctx context.Context, opts Options) (*Result, error) {
	sources, err := LoadSources(opts.InputDir)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, opts.InputDir)
	}

	built := BuildPrompt(sources, opts.Template)
	outputPath := filepath.Join(opts.OutputDir, OutputName)
	metaPath := filepath.Join(opts.OutputDir, "synthesis_meta.json")

	if opts.DryRun {
		slog.Info("dry run: would synthesize subagent outputs", "sources", len(sources), "output", outputPath)
		return &Result{OutputPath: outputPath, MetaPath: metaPath}, nil
	}

	slog.Info("synthesizing subagent outputs", "sources", len(sources), "model", opts.Model)

	response, err := s.client.Complete(ctx, oai.ChatRequest{
		Model: opts.Model,
		Messages: []oai.Message{
			{Role: "system", Content: "You are a research synthesis expert."},
			{Role: "user", Content: built},
		},
		Temperature: opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis call: %w", err)
	}

	content := fence.ExtractMarkdown(response.Content)
	if content == "" {
		slog.Warn("no fenced markdown block in response, saving raw content")
		content = response.Content
	}

	if err := store.WriteText(content, outputPath); err != nil {
		return nil, err
	}

	inputFiles := make([]string, len(sources))
	for i, source := range sources {
		inputFiles[i] = filepath.Base(source.Path)
	}
	meta := Metadata{
		Timestamp:   time.Now().Format(store.TimestampFormat),
		Model:       opts.Model,
		ElapsedTime: response.ElapsedTime,
		TokenUsage:  response.Usage,
		PromptHash:  store.PromptHash(built),
		InputFiles:  inputFiles,
		OutputFile:  OutputName,
	}
	if err := store.WriteJSON(meta, metaPath); err != nil {
		return nil, err
	}

	slog.Info("synthesis completed", "elapsed", fmt.Sprintf("%.2fs", response.ElapsedTime), "output", outputPath)
	return &Result{OutputPath: outputPath, MetaPath: metaPath}, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
