package main

// Offline harness for the evaluation prompts:
//   go run ./cmd/prompttest -resume ./testdata/resume.pdf -job ./testdata/job.json

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jobmatch-backend/internal/evaluation"
	"jobmatch-backend/internal/llm"
	"jobmatch-backend/internal/llm/gemini"
	"jobmatch-backend/internal/normalize"
	"jobmatch-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	resumePath := flag.String("resume", "", "Path to resume file (pdf, doc, or docx)")
	jobPath := flag.String("job", "", "Path to job profile JSON (optional; skips scoring when empty)")
	models := flag.String("models", strings.Join(cfg.GeminiModels, ","), "Comma-separated model priority list")
	outPath := flag.String("out", "", "Path to write the extracted profile JSON (optional)")
	flag.Parse()

	if *resumePath == "" {
		fmt.Fprintln(os.Stderr, "usage: prompttest -resume <file> [-job <file>]")
		os.Exit(2)
	}
	if cfg.GeminiAPIKey == "" {
		fmt.Fprintln(os.Stderr, "GEMINI_API_KEY is required")
		os.Exit(2)
	}

	ctx := context.Background()

	client, err := gemini.New(ctx, cfg.GeminiAPIKey)
	if err != nil {
		fail("init gemini client: %v", err)
	}
	invoker, err := llm.NewInvoker(client, splitModels(*models))
	if err != nil {
		fail("init invoker: %v", err)
	}

	data, err := os.ReadFile(*resumePath)
	if err != nil {
		fail("read resume: %v", err)
	}

	normalizer := normalize.New(cfg.SofficePath)
	prepared, err := normalizer.Prepare(ctx, normalize.Attachment{
		Data:     data,
		FileName: filepath.Base(*resumePath),
	})
	if err != nil {
		fail("prepare resume: %v", err)
	}
	fmt.Printf("normalized strategy=%s parts=%d\n", prepared.Strategy, len(prepared.Parts))

	classifier := &evaluation.Classifier{Invoker: invoker}
	classification := classifier.Classify(ctx, prepared.Parts)
	fmt.Printf("classification: isResume=%v reason=%q\n", classification.IsResume, classification.Reason)

	extractor := &evaluation.Extractor{Invoker: invoker}
	profile, err := extractor.Extract(ctx, prepared.Parts)
	if err != nil {
		fail("extract: %v", err)
	}
	profileJSON, _ := json.MarshalIndent(profile, "", "  ")
	fmt.Printf("profile:\n%s\n", profileJSON)
	if *outPath != "" {
		if err := os.WriteFile(*outPath, profileJSON, 0o644); err != nil {
			fail("write profile: %v", err)
		}
	}

	if *jobPath == "" {
		return
	}
	jobData, err := os.ReadFile(*jobPath)
	if err != nil {
		fail("read job profile: %v", err)
	}
	var job evaluation.JobProfile
	if err := json.Unmarshal(jobData, &job); err != nil {
		fail("parse job profile: %v", err)
	}

	scorer := &evaluation.Scorer{Invoker: invoker}
	match, err := scorer.Score(ctx, profile, job)
	if err != nil {
		fail("score: %v", err)
	}
	fmt.Printf("score=%d\njustification: %s\n", match.Score, match.Justification)
}

func splitModels(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
