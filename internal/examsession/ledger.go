package examsession

import "fmt"

// Status is the per-question response state shown on the question grid.
type Status string

const (
	StatusAnswered          Status = "ANSWERED"
	StatusSkipped           Status = "SKIPPED"
	StatusMarked            Status = "MARKED"
	StatusAnsweredAndMarked Status = "ANSWERED_AND_MARKED"
)

// HasAnswer reports whether the status carries a real selection.
func (s Status) HasAnswer() bool {
	return s == StatusAnswered || s == StatusAnsweredAndMarked
}

// IsMarked reports whether the question is flagged for review.
func (s Status) IsMarked() bool {
	return s == StatusMarked || s == StatusAnsweredAndMarked
}

// AnswerRecord is the ledger's entry for one question.
type AnswerRecord struct {
	QuestionID QuestionID `json:"question_id"`
	Selected   OptionID   `json:"selected_option_id"`
	IsCorrect  bool       `json:"is_correct"`
	Status     Status     `json:"status"`
}

// Summary counts records by status.
type Summary struct {
	Answered int `json:"answered"`
	Marked   int `json:"marked"`
	Total    int `json:"total"`
}

// Ledger holds at most one record per question, ordered by first arrival.
// Replacing a record keeps its position.
type Ledger struct {
	records []AnswerRecord
	index   map[QuestionID]int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{index: make(map[QuestionID]int)}
}

// RecordAnswer stores a selection for qid. A question already flagged for
// review stays flagged.
func (l *Ledger) RecordAnswer(qid QuestionID, opt OptionID, isCorrect bool) (Status, error) {
	if opt == "" || opt == NoOption {
		return "", fmt.Errorf("record answer for %s: %w", qid, ErrNoSelection)
	}

	status := StatusAnswered
	if i, ok := l.index[qid]; ok {
		if l.records[i].Status.IsMarked() {
			status = StatusAnsweredAndMarked
		}
		l.records[i] = AnswerRecord{QuestionID: qid, Selected: opt, IsCorrect: isCorrect, Status: status}
		return status, nil
	}

	l.append(AnswerRecord{QuestionID: qid, Selected: opt, IsCorrect: isCorrect, Status: status})
	return status, nil
}

// RecordSkip adds a SKIPPED placeholder for qid unless a record exists.
// It reports whether a record was created.
func (l *Ledger) RecordSkip(qid QuestionID) bool {
	if _, ok := l.index[qid]; ok {
		return false
	}
	l.append(AnswerRecord{QuestionID: qid, Selected: NoOption, Status: StatusSkipped})
	return true
}

// ToggleMark flags qid for review and returns the resulting status.
// Marking is one-way: a flagged question stays flagged.
func (l *Ledger) ToggleMark(qid QuestionID) Status {
	i, ok := l.index[qid]
	if !ok {
		l.append(AnswerRecord{QuestionID: qid, Selected: NoOption, Status: StatusMarked})
		return StatusMarked
	}

	rec := &l.records[i]
	switch rec.Status {
	case StatusAnswered:
		rec.Status = StatusAnsweredAndMarked
	case StatusSkipped:
		rec.Status = StatusMarked
	}
	return rec.Status
}

// StatusFor returns the status of qid and whether any record exists.
func (l *Ledger) StatusFor(qid QuestionID) (Status, bool) {
	i, ok := l.index[qid]
	if !ok {
		return "", false
	}
	return l.records[i].Status, true
}

// Record returns the record for qid.
func (l *Ledger) Record(qid QuestionID) (AnswerRecord, bool) {
	i, ok := l.index[qid]
	if !ok {
		return AnswerRecord{}, false
	}
	return l.records[i], true
}

// Records returns a copy of all records in arrival order.
func (l *Ledger) Records() []AnswerRecord {
	out := make([]AnswerRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }

// Summarize counts answered and marked records.
func (l *Ledger) Summarize() Summary {
	s := Summary{Total: len(l.records)}
	for _, r := range l.records {
		if r.Status.HasAnswer() {
			s.Answered++
		}
		if r.Status.IsMarked() {
			s.Marked++
		}
	}
	return s
}

func (l *Ledger) append(r AnswerRecord) {
	l.index[r.QuestionID] = len(l.records)
	l.records = append(l.records, r)
}
