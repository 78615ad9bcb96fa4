// Package questionfile reads question sets from YAML or JSON files.
package questionfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nexlearn/exam-engine/internal/examsession"
	"gopkg.in/yaml.v3"
)

// Load reads and normalizes the question set at path. JSON files use the
// /question/list payload shape; anything else is parsed as YAML.
func Load(path string) (*examsession.QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read question file: %v", examsession.ErrLoadFailure, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// ParseYAML parses a single YAML document. Unknown keys are rejected.
func ParseYAML(data []byte) (*examsession.QuestionSet, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", examsession.ErrLoadFailure, err)
	}
	var extra yaml.Node
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			return nil, fmt.Errorf("%w: parse yaml: multiple documents are not supported", examsession.ErrLoadFailure)
		}
		return nil, fmt.Errorf("%w: parse yaml: %v", examsession.ErrLoadFailure, err)
	}
	return Normalize(f, data)
}

// ParseJSON parses a question set in API shape, bare or wrapped in the
// response envelope. Numeric ids are kept as their decimal text. The answer
// key is not required here.
func ParseJSON(data []byte) (*examsession.QuestionSet, error) {
	var payload struct {
		apiSet
		Data *apiSet `json:"data"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: parse json: %v", examsession.ErrLoadFailure, err)
	}
	in := payload.apiSet
	if payload.Data != nil {
		in = *payload.Data
	}

	set := &examsession.QuestionSet{
		SetID:                strings.TrimSpace(string(in.SetID)),
		Title:                strings.TrimSpace(in.Title),
		TotalDurationMinutes: in.TotalTime,
		TotalMarks:           in.TotalMarks,
		Questions:            make([]examsession.Question, len(in.Questions)),
	}
	if set.SetID == "" {
		set.SetID = derivedID(data)
	}
	for i, q := range in.Questions {
		out := examsession.Question{
			ID:          examsession.QuestionID(strings.TrimSpace(string(q.ID))),
			Ordinal:     q.Number,
			Text:        q.Question,
			PassageText: q.Comprehension,
			ImageRef:    q.Image,
			Options:     make([]examsession.Option, len(q.Options)),
		}
		if out.Ordinal == 0 {
			out.Ordinal = i + 1
		}
		for j, o := range q.Options {
			out.Options[j] = examsession.Option{
				ID:        examsession.OptionID(strings.TrimSpace(string(o.ID))),
				Text:      o.Option,
				ImageRef:  o.Image,
				IsCorrect: o.IsCorrect,
			}
		}
		set.Questions[i] = out
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Normalize converts a parsed file into a session set, filling in ids and
// ordinals the author left out. raw seeds the set id when none is given.
func Normalize(f File, raw []byte) (*examsession.QuestionSet, error) {
	set := &examsession.QuestionSet{
		SetID:                strings.TrimSpace(f.SetID),
		Title:                strings.TrimSpace(f.Title),
		TotalDurationMinutes: f.TotalTime,
		TotalMarks:           f.TotalMarks,
		Questions:            make([]examsession.Question, 0, len(f.Questions)),
	}
	if set.SetID == "" {
		set.SetID = derivedID(raw)
	}

	for i, q := range f.Questions {
		text := strings.TrimSpace(q.Question)
		if text == "" {
			return nil, fmt.Errorf("%w: question %d has no text", examsession.ErrLoadFailure, i+1)
		}
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("%w: question %d needs at least two options", examsession.ErrLoadFailure, i+1)
		}

		id := strings.TrimSpace(q.ID)
		if id == "" {
			id = fmt.Sprintf("q%d", i+1)
		}
		out := examsession.Question{
			ID:          examsession.QuestionID(id),
			Ordinal:     i + 1,
			Text:        text,
			PassageText: strings.TrimSpace(q.Comprehension),
			ImageRef:    strings.TrimSpace(q.Image),
			Options:     make([]examsession.Option, 0, len(q.Options)),
		}

		correct := 0
		seen := make(map[string]bool, len(q.Options))
		for j, o := range q.Options {
			oid := strings.TrimSpace(o.ID)
			if oid == "" {
				oid = optionLetter(j)
			}
			if oid == string(examsession.NoOption) {
				return nil, fmt.Errorf("%w: question %d: option id %q is reserved", examsession.ErrLoadFailure, i+1, oid)
			}
			if seen[oid] {
				return nil, fmt.Errorf("%w: question %d: duplicate option id %q", examsession.ErrLoadFailure, i+1, oid)
			}
			seen[oid] = true
			if o.Correct {
				correct++
			}
			out.Options = append(out.Options, examsession.Option{
				ID:        examsession.OptionID(oid),
				Text:      strings.TrimSpace(o.Option),
				ImageRef:  strings.TrimSpace(o.Image),
				IsCorrect: o.Correct,
			})
		}
		if correct != 1 {
			return nil, fmt.Errorf("%w: question %d must have exactly one correct option, has %d", examsession.ErrLoadFailure, i+1, correct)
		}
		set.Questions = append(set.Questions, out)
	}

	if set.TotalMarks == 0 {
		set.TotalMarks = float64(len(set.Questions))
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// optionLetter names the j-th option "a", "b", ... "z", "aa", ...
func optionLetter(j int) string {
	name := ""
	for j >= 0 {
		name = string(rune('a'+j%26)) + name
		j = j/26 - 1
	}
	return name
}

func derivedID(raw []byte) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, raw).String()
}

// Source serves one file to every caller. Tokens are ignored.
type Source struct {
	Path string
}

var _ examsession.QuestionSource = Source{}

func (s Source) LoadQuestions(_ context.Context, _ string) (*examsession.QuestionSet, error) {
	return Load(s.Path)
}
