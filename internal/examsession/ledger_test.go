package examsession

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

func TestLedgerRecordAnswerReplacesInPlace(t *testing.T) {
	l := NewLedger()
	mustAnswer(t, l, "q1", "a", false)
	mustAnswer(t, l, "q2", "b", true)
	mustAnswer(t, l, "q1", "c", true)

	recs := l.Records()
	if len(recs) != 2 {
		t.Fatalf("len(Records()) = %d, want 2", len(recs))
	}
	if recs[0].QuestionID != "q1" || recs[0].Selected != "c" || !recs[0].IsCorrect {
		t.Fatalf("first record = %+v, want q1 replaced with c", recs[0])
	}
	if recs[1].QuestionID != "q2" {
		t.Fatalf("second record = %+v, want q2", recs[1])
	}
}

func TestLedgerRejectsNoOption(t *testing.T) {
	l := NewLedger()
	for _, opt := range []OptionID{NoOption, ""} {
		if _, err := l.RecordAnswer("q1", opt, false); !errors.Is(err, ErrNoSelection) {
			t.Fatalf("RecordAnswer(%q) err = %v, want ErrNoSelection", opt, err)
		}
	}
	if l.Len() != 0 {
		t.Fatalf("rejected answers created %d records", l.Len())
	}
}

func TestLedgerSkipNeverOverwrites(t *testing.T) {
	l := NewLedger()
	mustAnswer(t, l, "q1", "a", true)

	if l.RecordSkip("q1") {
		t.Fatal("RecordSkip overwrote an answered question")
	}
	if st, _ := l.StatusFor("q1"); st != StatusAnswered {
		t.Fatalf("status = %s, want ANSWERED", st)
	}

	if !l.RecordSkip("q2") {
		t.Fatal("RecordSkip did not create a record for an untouched question")
	}
	if l.RecordSkip("q2") {
		t.Fatal("second RecordSkip reported a new record")
	}
	rec, _ := l.Record("q2")
	if rec.Selected != NoOption || rec.IsCorrect || rec.Status != StatusSkipped {
		t.Fatalf("skip record = %+v", rec)
	}
}

func TestLedgerMarkTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(l *Ledger)
		want  Status
	}{
		{"untouched", func(l *Ledger) {}, StatusMarked},
		{"answered", func(l *Ledger) { l.RecordAnswer("q", "a", true) }, StatusAnsweredAndMarked},
		{"skipped", func(l *Ledger) { l.RecordSkip("q") }, StatusMarked},
		{"already marked", func(l *Ledger) { l.ToggleMark("q") }, StatusMarked},
		{"already answered and marked", func(l *Ledger) {
			l.RecordAnswer("q", "a", true)
			l.ToggleMark("q")
		}, StatusAnsweredAndMarked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			tt.setup(l)
			if got := l.ToggleMark("q"); got != tt.want {
				t.Fatalf("ToggleMark = %s, want %s", got, tt.want)
			}
			if l.Len() != 1 {
				t.Fatalf("ledger has %d records, want 1", l.Len())
			}
		})
	}
}

func TestLedgerAnswerKeepsMark(t *testing.T) {
	l := NewLedger()
	l.ToggleMark("q1")
	if st := mustAnswer(t, l, "q1", "b", false); st != StatusAnsweredAndMarked {
		t.Fatalf("status after mark then answer = %s, want ANSWERED_AND_MARKED", st)
	}
	if st := mustAnswer(t, l, "q1", "c", true); st != StatusAnsweredAndMarked {
		t.Fatalf("status after re-answer = %s, want ANSWERED_AND_MARKED", st)
	}
}

func TestLedgerSummarize(t *testing.T) {
	l := NewLedger()
	mustAnswer(t, l, "q1", "a", true)
	mustAnswer(t, l, "q2", "a", false)
	l.ToggleMark("q2")
	l.ToggleMark("q3")
	l.RecordSkip("q4")

	got := l.Summarize()
	want := Summary{Answered: 2, Marked: 2, Total: 4}
	if got != want {
		t.Fatalf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestLedgerRecordsIsACopy(t *testing.T) {
	l := NewLedger()
	mustAnswer(t, l, "q1", "a", true)
	recs := l.Records()
	recs[0].Status = StatusSkipped
	if st, _ := l.StatusFor("q1"); st != StatusAnswered {
		t.Fatalf("mutating Records() changed the ledger to %s", st)
	}
}

func TestLedgerRandomSequenceKeepsOneRecordPerQuestion(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1337, 90210} {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			l := NewLedger()
			touched := make(map[QuestionID]bool)
			var order []QuestionID

			for step := 0; step < 500; step++ {
				qid := QuestionID(fmt.Sprintf("q%d", rng.Intn(12)))
				if !touched[qid] {
					touched[qid] = true
					order = append(order, qid)
				}
				switch rng.Intn(3) {
				case 0:
					opt := OptionID(fmt.Sprintf("o%d", rng.Intn(4)))
					mustAnswer(t, l, qid, opt, rng.Intn(2) == 0)
				case 1:
					l.RecordSkip(qid)
				case 2:
					l.ToggleMark(qid)
				}

				if l.Len() != len(touched) {
					t.Fatalf("step %d: Len() = %d, want %d distinct questions", step, l.Len(), len(touched))
				}
			}

			recs := l.Records()
			seen := make(map[QuestionID]bool, len(recs))
			for i, r := range recs {
				if seen[r.QuestionID] {
					t.Fatalf("duplicate record for %s", r.QuestionID)
				}
				seen[r.QuestionID] = true
				if r.QuestionID != order[i] {
					t.Fatalf("record %d = %s, want first-arrival order %s", i, r.QuestionID, order[i])
				}
			}
			if sum := l.Summarize(); sum.Total != len(touched) {
				t.Fatalf("Summarize().Total = %d, want %d", sum.Total, len(touched))
			}
		})
	}
}

func mustAnswer(t *testing.T, l *Ledger, q QuestionID, o OptionID, correct bool) Status {
	t.Helper()
	st, err := l.RecordAnswer(q, o, correct)
	if err != nil {
		t.Fatalf("RecordAnswer(%s, %s): %v", q, o, err)
	}
	return st
}
