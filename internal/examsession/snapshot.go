package examsession

// GridCell is one entry of the question navigation grid.
type GridCell struct {
	Index   int    `json:"index"`
	Ordinal int    `json:"number"`
	Status  Status `json:"status,omitempty"`
	Current bool   `json:"current"`
}

// Stats is the bundle shown in the submit confirmation.
type Stats struct {
	RemainingTime  string `json:"remaining_time"`
	TotalQuestions int    `json:"total_questions"`
	Answered       int    `json:"answered"`
	Marked         int    `json:"marked"`
}

// Snapshot is a read-only view of a session for rendering. The question it
// carries has option correctness removed.
type Snapshot struct {
	State      State      `json:"state"`
	Index      int        `json:"index"`
	Total      int        `json:"total"`
	Question   Question   `json:"question"`
	Selected   OptionID   `json:"selected_option_id,omitempty"`
	Status     Status     `json:"status,omitempty"`
	Grid       []GridCell `json:"grid"`
	Remaining  Remaining  `json:"remaining"`
	Stats      Stats      `json:"stats"`
	CanRetreat bool       `json:"can_retreat"`
	CanCancel  bool       `json:"can_cancel"`
	IsLast     bool       `json:"is_last"`
	Result     *Result    `json:"result,omitempty"`
}

// Snapshot captures the current state.
func (s *Session) Snapshot() Snapshot {
	q := s.Current()
	snap := Snapshot{
		State:      s.state,
		Index:      s.index,
		Total:      len(s.set.Questions),
		Question:   q.Redacted(),
		Grid:       make([]GridCell, len(s.set.Questions)),
		Remaining:  s.remaining,
		CanRetreat: s.state == StateActive && s.index > 0,
		CanCancel:  s.CanCancel(),
		IsLast:     s.isLast(),
	}

	if rec, ok := s.ledger.Record(q.ID); ok {
		snap.Status = rec.Status
		if rec.Status.HasAnswer() {
			snap.Selected = rec.Selected
		}
	}

	for i, qq := range s.set.Questions {
		st, _ := s.ledger.StatusFor(qq.ID)
		snap.Grid[i] = GridCell{Index: i, Ordinal: qq.Ordinal, Status: st, Current: i == s.index}
	}

	sum := s.ledger.Summarize()
	snap.Stats = Stats{
		RemainingTime:  s.remaining.String(),
		TotalQuestions: len(s.set.Questions),
		Answered:       sum.Answered,
		Marked:         sum.Marked,
	}

	if s.result != nil {
		res := *s.result
		snap.Result = &res
	}
	return snap
}
