package suno

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/providers"
)

func TestSubmit_SendsCustomGenerate_AndReadsArray(t *testing.T) {
	var got customGenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/custom_generate" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing bearer auth")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`[{"id":"job-1","status":"submitted"},{"id":"job-2"}]`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL + "/"})
	job, err := c.Submit(context.Background(), SongRequest{Lyrics: "la la", StyleTags: "edm", Title: "Happy Birthday Sam"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if job.ID != "job-1" || job.Status != domain.JobStatusPending {
		t.Fatalf("job = %+v", job)
	}
	if got.Prompt != "la la" || got.Tags != "edm" || got.Title != "Happy Birthday Sam" || got.MakeInstrumental {
		t.Fatalf("request body = %+v", got)
	}
}

func TestSubmit_ObjectResponse_DefaultsPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"job-9"}`))
	}))
	defer srv.Close()
	job, err := NewClient(Config{BaseURL: srv.URL}).Submit(context.Background(), SongRequest{})
	if err != nil || job.ID != "job-9" || job.Status != domain.JobStatusPending {
		t.Fatalf("job = %+v err=%v", job, err)
	}
}

func TestSubmit_MissingJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	_, err := NewClient(Config{BaseURL: srv.URL}).Submit(context.Background(), SongRequest{})
	if !providers.IsAdapterError(err) {
		t.Fatalf("expected adapter error, got %v", err)
	}
}

func TestSubmit_NonSuccessCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte("out of credits"))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Submit(context.Background(), SongRequest{})
	var ae *providers.AdapterError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *AdapterError, got %T", err)
	}
	if ae.StatusCode != http.StatusPaymentRequired || ae.Body != "out of credits" || ae.Op != "submit" {
		t.Fatalf("adapter error = %+v", ae)
	}
}

func TestGetStatus_Normalizes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want domain.JobStatus
		url  string
	}{
		{"streaming", `[{"id":"j","status":"streaming","audio_url":"https://cdn/a.mp3"}]`, domain.JobStatusProcessing, "https://cdn/a.mp3"},
		{"complete by url", `[{"id":"j","status":"queued","audio_url":"https://cdn/b.mp3"}]`, domain.JobStatusComplete, "https://cdn/b.mp3"},
		{"complete explicit", `{"id":"j","status":"complete"}`, domain.JobStatusComplete, ""},
		{"error", `{"id":"j","status":"error"}`, domain.JobStatusFailed, ""},
		{"error message", `{"id":"j","status":"queued","error":"bad lyrics"}`, domain.JobStatusFailed, ""},
		{"unknown", `{"id":"j","status":"queued"}`, domain.JobStatusPending, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/get" || r.URL.Query().Get("ids") != "j" {
					t.Errorf("unexpected request %s", r.URL.String())
				}
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			st, err := NewClient(Config{BaseURL: srv.URL}).GetStatus(context.Background(), "j")
			if err != nil {
				t.Fatalf("GetStatus: %v", err)
			}
			if st.Status != tc.want || st.AudioURL != tc.url {
				t.Fatalf("status = %+v; want %s", st, tc.want)
			}
		})
	}
}

func TestGetStatus_TimeoutIsDistinct(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{BaseURL: srv.URL, StatusTimeout: 30 * time.Millisecond})
	_, err := c.GetStatus(context.Background(), "j")
	if !errors.Is(err, providers.ErrTimeout) {
		t.Fatalf("err = %v; want timeout", err)
	}
	var ae *providers.AdapterError
	if errors.As(err, &ae) && ae.StatusCode != 0 {
		t.Fatalf("timeout should not carry a status code")
	}
}

func TestGetStatus_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	if _, err := NewClient(Config{BaseURL: srv.URL}).GetStatus(context.Background(), "j"); !providers.IsAdapterError(err) {
		t.Fatalf("expected adapter error, got %v", err)
	}
}
