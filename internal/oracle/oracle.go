// Package oracle asks a language model to structure resume text and turns
// its answers into blocks.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fmuoria/resume-tailor/internal/llm"
	"github.com/fmuoria/resume-tailor/internal/models"
)

// Oracle structures resumes through a language model
type Oracle struct {
	gen llm.Generator
}

// New creates an oracle backed by gen
func New(gen llm.Generator) *Oracle {
	return &Oracle{gen: gen}
}

// ParseBlocks asks for the direct block form of a resume
func (o *Oracle) ParseBlocks(ctx context.Context, text string) (models.Blocks, error) {
	response, err := o.generate(ctx, buildBlocksPrompt(text))
	if err != nil {
		return nil, err
	}

	blocks, err := parseBlocks(response)
	if err != nil {
		return nil, &models.SemanticOracleError{Reason: "unusable block response", Err: err}
	}
	return blocks, nil
}

// AnalyzeSections asks for the line-span form of a resume
func (o *Oracle) AnalyzeSections(ctx context.Context, lines []string) ([]models.SectionSpan, error) {
	prompt, err := buildSectionsPrompt(lines)
	if err != nil {
		return nil, &models.SemanticOracleError{Reason: "failed to build request", Err: err}
	}

	response, err := o.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	spans, err := parseSections(response)
	if err != nil {
		return nil, &models.SemanticOracleError{Reason: "unusable section response", Err: err}
	}
	return spans, nil
}

// StructureLines runs the line-span form and builds blocks from the spans
func (o *Oracle) StructureLines(ctx context.Context, lines []models.ClassifiedLine) (models.Blocks, error) {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}

	spans, err := o.AnalyzeSections(ctx, texts)
	if err != nil {
		return nil, err
	}
	return BlocksFromSpans(lines, spans), nil
}

func (o *Oracle) generate(ctx context.Context, prompt string) (string, error) {
	if o == nil || o.gen == nil {
		return "", &models.SemanticOracleError{Reason: "no oracle provider configured"}
	}

	response, err := o.gen.GenerateContent(ctx, prompt)
	if err != nil {
		return "", &models.SemanticOracleError{Reason: "oracle call failed", Err: err}
	}
	return response, nil
}

// extractJSON strips code fences and returns the outermost JSON object
func extractJSON(response string) (string, error) {
	content := strings.TrimSpace(response)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return "", fmt.Errorf("no JSON found in response")
	}

	return content[startIdx : endIdx+1], nil
}

func decodeObject(response string) (map[string]json.RawMessage, error) {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return nil, err
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &obj); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return obj, nil
}

// parseBlocks accepts either a "blocks" or an "items" list
func parseBlocks(response string) (models.Blocks, error) {
	obj, err := decodeObject(response)
	if err != nil {
		return nil, err
	}

	raw, ok := obj["blocks"]
	if !ok {
		raw, ok = obj["items"]
	}
	if !ok {
		return nil, fmt.Errorf("response has neither blocks nor items")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("blocks is not a list: %w", err)
	}
	if items == nil {
		return nil, fmt.Errorf("blocks is null")
	}

	blocks := make(models.Blocks, 0, len(items))
	for i, item := range items {
		b, err := models.UnmarshalBlock(item)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func parseSections(response string) ([]models.SectionSpan, error) {
	obj, err := decodeObject(response)
	if err != nil {
		return nil, err
	}

	raw, ok := obj["sections"]
	if !ok {
		return nil, fmt.Errorf("response has no sections")
	}

	var spans []models.SectionSpan
	if err := json.Unmarshal(raw, &spans); err != nil {
		return nil, fmt.Errorf("sections is not a list of spans: %w", err)
	}
	if spans == nil {
		return nil, fmt.Errorf("sections is null")
	}
	return spans, nil
}
