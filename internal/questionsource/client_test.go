package questionsource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nexlearn/exam-engine/internal/examsession"
)

const withKey = `{"total_time":10,"total_marks":2,"questions_count":2,"questions":[
	{"question_id":"q1","number":1,"question":"One?","options":[{"id":"a","option":"yes","is_correct":true},{"id":"b","option":"no"}]},
	{"question_id":"q2","number":2,"question":"Two?","comprehension":"Read this.","options":[{"id":"a","option":"yes"},{"id":"b","option":"no","is_correct":true}]}
]}`

const withoutKey = `{"data":{"total_time":10,"questions":[
	{"question_id":"q1","number":1,"question":"One?","options":[{"id":"a","option":"yes"},{"id":"b","option":"no"}]}
]}}`

// numericIDs is the shape served by the original exam backend.
const numericIDs = `{"success":true,"total_time":30,"total_marks":2,"questions_count":2,"questions":[
	{"question_id":1,"number":1,"question":"One?","options":[{"id":11,"option":"yes","is_correct":true},{"id":12,"option":"no","is_correct":false}]},
	{"question_id":2,"number":2,"question":"Two?","options":[{"id":21,"option":"yes","is_correct":false},{"id":22,"option":"no","is_correct":true}]}
]}`

func server(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DefaultPath {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadQuestions(t *testing.T) {
	srv := server(t, http.StatusOK, withKey)

	set, err := New(srv.URL+"/").LoadQuestions(context.Background(), "good")
	if err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	if len(set.Questions) != 2 || set.TotalDurationMinutes != 10 {
		t.Fatalf("unexpected set %+v", set)
	}
	if set.Questions[1].PassageText != "Read this." {
		t.Fatalf("comprehension lost: %+v", set.Questions[1])
	}
	if opt, ok := set.Questions[1].Option("b"); !ok || !opt.IsCorrect {
		t.Fatalf("answer key lost: %+v", set.Questions[1].Options)
	}
}

func TestLoadQuestionsNumericIDs(t *testing.T) {
	srv := server(t, http.StatusOK, numericIDs)

	set, err := New(srv.URL).LoadQuestions(context.Background(), "good")
	if err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	if set.Questions[0].ID != "1" || set.Questions[1].ID != "2" {
		t.Fatalf("question ids = %q, %q", set.Questions[0].ID, set.Questions[1].ID)
	}
	if opt, ok := set.Questions[1].Option("22"); !ok || !opt.IsCorrect {
		t.Fatalf("option 22 = %+v, %v", opt, ok)
	}
}

func TestLoadQuestionsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		token  string
		want   error
	}{
		{"empty token", http.StatusOK, withKey, "", examsession.ErrNotAuthenticated},
		{"rejected token", http.StatusOK, withKey, "bad", examsession.ErrNotAuthenticated},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, "good", examsession.ErrLoadFailure},
		{"malformed body", http.StatusOK, `{"questions":`, "good", examsession.ErrLoadFailure},
		{"empty set", http.StatusOK, `{"questions":[]}`, "good", examsession.ErrLoadFailure},
		{"answer key withheld", http.StatusOK, withoutKey, "good", examsession.ErrLoadFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := server(t, tt.status, tt.body)
			_, err := New(srv.URL).LoadQuestions(context.Background(), tt.token)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUnreachableServer(t *testing.T) {
	srv := server(t, http.StatusOK, withKey)
	url := srv.URL
	srv.Close()

	_, err := New(url).LoadQuestions(context.Background(), "good")
	if !errors.Is(err, examsession.ErrLoadFailure) {
		t.Fatalf("err = %v, want ErrLoadFailure", err)
	}
}
