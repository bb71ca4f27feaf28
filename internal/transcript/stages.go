package transcript

import (
	"encoding/json"
	"fmt"
)

// ModelResponse is a single council member's (or the chairman's) answer.
type ModelResponse struct {
	Model    string `json:"model" yaml:"model"`
	Slug     string `json:"slug,omitempty" yaml:"slug,omitempty"`
	Response string `json:"response" yaml:"response"`
}

// Ranking is one member's peer evaluation of the anonymised stage-1 answers.
type Ranking struct {
	Model         string   `json:"model" yaml:"model"`
	Slug          string   `json:"slug,omitempty" yaml:"slug,omitempty"`
	Ranking       string   `json:"ranking" yaml:"ranking"`
	ParsedRanking []string `json:"parsed_ranking,omitempty" yaml:"parsed_ranking,omitempty"`
}

type AggregateRank struct {
	Model         string  `json:"model" yaml:"model"`
	AverageRank   float64 `json:"average_rank" yaml:"average_rank"`
	RankingsCount int     `json:"rankings_count" yaml:"rankings_count"`
}

// Metadata is attached to an assistant message when stage 2 completes.
type Metadata struct {
	LabelToModel      map[string]string `json:"label_to_model,omitempty" yaml:"label_to_model,omitempty"`
	AggregateRankings []AggregateRank   `json:"aggregate_rankings,omitempty" yaml:"aggregate_rankings,omitempty"`
}

// The decoders below are best-effort: stage payloads are free-form, so a
// payload of an unexpected shape yields an error the caller can fall back on.

func DecodeStage1(raw json.RawMessage) ([]ModelResponse, error) {
	var out []ModelResponse
	if err := decodeStage("stage1", raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func DecodeStage2(raw json.RawMessage) ([]Ranking, error) {
	var out []Ranking
	if err := decodeStage("stage2", raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func DecodeStage3(raw json.RawMessage) (ModelResponse, error) {
	var out ModelResponse
	if err := decodeStage("stage3", raw, &out); err != nil {
		return ModelResponse{}, err
	}
	return out, nil
}

func DecodeMetadata(raw json.RawMessage) (Metadata, error) {
	var out Metadata
	if err := decodeStage("metadata", raw, &out); err != nil {
		return Metadata{}, err
	}
	return out, nil
}

func decodeStage(name string, raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%s: empty payload", name)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
