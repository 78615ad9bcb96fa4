package questionfile

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// File is the on-disk shape of a question set.
type File struct {
	SetID      string     `yaml:"set_id"`
	Title      string     `yaml:"title"`
	TotalTime  float64    `yaml:"total_time"`
	TotalMarks float64    `yaml:"total_marks"`
	Questions  []Question `yaml:"questions"`
}

type Question struct {
	ID            string   `yaml:"id"`
	Question      string   `yaml:"question"`
	Comprehension string   `yaml:"comprehension"`
	Image         string   `yaml:"image"`
	Options       []Option `yaml:"options"`
}

type Option struct {
	ID      string `yaml:"id"`
	Option  string `yaml:"option"`
	Image   string `yaml:"image"`
	Correct bool   `yaml:"correct"`
}

// apiSet is the /question/list payload shape. Ids may arrive as strings or
// as numbers, depending on the server.
type apiSet struct {
	SetID      flexID        `json:"set_id"`
	Title      string        `json:"title"`
	TotalTime  float64       `json:"total_time"`
	TotalMarks float64       `json:"total_marks"`
	Questions  []apiQuestion `json:"questions"`
}

type apiQuestion struct {
	ID            flexID      `json:"question_id"`
	Number        int         `json:"number"`
	Question      string      `json:"question"`
	Comprehension string      `json:"comprehension"`
	Image         string      `json:"image"`
	Options       []apiOption `json:"options"`
}

type apiOption struct {
	ID        flexID `json:"id"`
	Option    string `json:"option"`
	Image     string `json:"image"`
	IsCorrect bool   `json:"is_correct"`
}

// flexID accepts a JSON string or number and keeps its text.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number, got %s", b)
	}
	*id = flexID(n.String())
	return nil
}
