// Package cite verifies the factual claims of a synthesized document,
// producing a CSV claim table and an annotated Markdown version.
package cite

import (
	"context"
	"encoding/csv"
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

const (
	TableName    = "citation_table.csv"
	VerifiedName = "design_decisions_verified.md"
)

// ClaimCounts breaks down the claim table by verification status.
type ClaimCounts struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// Metadata is the audit record for a verification run.
type Metadata struct {
	Timestamp   string       `json:"timestamp"`
	Model       string       `json:"model"`
	ElapsedTime float64      `json:"elapsed_time"`
	TokenUsage  oai.Usage    `json:"token_usage"`
	PromptHash  string       `json:"prompt_hash"`
	InputFile   string       `json:"input_file"`
	OutputFiles []string     `json:"output_files"`
	ClaimCounts *ClaimCounts `json:"claim_counts,omitempty"`
}

type Result struct {
	TablePath    string
	VerifiedPath string
	MetaPath     string
	Counts       *ClaimCounts
}

type Options struct {
	InputPath   string
	OutputDir   string
	Template    string
	Model       string
	Temperature float64
	DryRun      bool
}

// CompletionClient matches the oai client surface the verifier needs.
type CompletionClient interface {
	Complete(ctx context.Context, request oai.ChatRequest) (*oai.ChatResponse, error)
}

type Verifier struct {
	client CompletionClient
}

func New(client CompletionClient) *Verifier {
	return &Verifier{client: client}
}

// Run verifies the input document. A response without a locatable CSV table
// fails the run: the downstream status tally cannot be computed without it.
// A missing annotated body only degrades to the full raw response.
func (v *Verifier) Run(ctx context.Context, opts Options) (*Result, error) {
	input, err := os.ReadFile(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", opts.InputPath, err)
	}

	built := opts.Template + "\n\n### Document to Verify\n\n" + string(input)
	tablePath := filepath.Join(opts.OutputDir, TableName)
	verifiedPath := filepath.Join(opts.OutputDir, VerifiedName)
	metaPath := filepath.Join(opts.OutputDir, "citation_meta.json")

	if opts.DryRun {
		slog.Info("dry run: would verify citations", "input", opts.InputPath, "table", tablePath, "verified", verifiedPath)
		return &Result{TablePath: tablePath, VerifiedPath: verifiedPath, MetaPath: metaPath}, nil
	}

	slog.Info("verifying citations", "input", opts.InputPath, "model", opts.Model)

	response, err := v.client.Complete(ctx, oai.ChatRequest{
		Model: opts.Model,
		Messages: []oai.Message{
			{Role: "system", Content: "You are a citation verification expert."},
			{Role: "user", Content: built},
		},
		Temperature: opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("verification call: %w", err)
	}

	table := fence.ExtractCSV(response.Content)
	if table == "" {
		return nil, fmt.Errorf("no CSV claim table in response")
	}

	annotated := fence.ExtractTrailingMarkdown(response.Content)
	if annotated == "" {
		slog.Warn("no annotated markdown in response, saving full response")
		annotated = response.Content
	}

	if err := store.WriteText(table+"\n", tablePath); err != nil {
		return nil, err
	}
	if err := store.WriteText(annotated, verifiedPath); err != nil {
		return nil, err
	}

	meta := Metadata{
		Timestamp:   time.Now().Format(store.TimestampFormat),
		Model:       opts.Model,
		ElapsedTime: response.ElapsedTime,
		TokenUsage:  response.Usage,
		PromptHash:  store.PromptHash(built),
		InputFile:   filepath.Base(opts.InputPath),
		OutputFiles: []string{TableName, VerifiedName},
	}

	counts, err := CountClaims(table)
	if err != nil {
		slog.Warn("failed to parse claim table for statistics", "error", err)
	} else {
		meta.ClaimCounts = counts
		slog.Info("citation verification completed", "claims", counts.Total, "by_status", counts.ByStatus)
	}

	if err := store.WriteJSON(meta, metaPath); err != nil {
		return nil, err
	}

	return &Result{TablePath: tablePath, VerifiedPath: verifiedPath, MetaPath: metaPath, Counts: meta.ClaimCounts}, nil
}

// CountClaims tallies claim rows by their status column.
func CountClaims(table string) (*ClaimCounts, error) {
	reader := csv.NewReader(strings.NewReader(table))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse claim table: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("empty claim table")
	}

	statusCol := -1
	for i, name := range records[0] {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(name)), "status") {
			statusCol = i
			break
		}
	}
	if statusCol < 0 {
		return nil, fmt.Errorf("claim table has no status column")
	}

	counts := &ClaimCounts{ByStatus: map[string]int{}}
	for _, row := range records[1:] {
		if statusCol >= len(row) {
			continue
		}
		counts.Total++
		counts.ByStatus[strings.TrimSpace(row[statusCol])]++
	}
	return counts, nil
}
