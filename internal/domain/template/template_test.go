package template

import (
	"strings"
	"testing"
	"time"
)

var created = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validParams() Params {
	return Params{
		ID:        "tpl-1",
		Title:     "Summarize meeting notes",
		Body:      "Summarize the following notes into action items.",
		Tags:      []string{"Meetings", "summary"},
		OwnerID:   "u1",
		CreatedAt: created,
	}
}

func TestNew_Valid(t *testing.T) {
	tpl, err := New(validParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.ID() != "tpl-1" {
		t.Errorf("ID() = %q", tpl.ID())
	}
	if tpl.Visibility() != Private {
		t.Errorf("Visibility() = %q, want private", tpl.Visibility())
	}
	if tpl.AuthorID() != "u1" {
		t.Errorf("AuthorID() = %q, want owner fallback", tpl.AuthorID())
	}
	if !tpl.UpdatedAt().Equal(created) {
		t.Errorf("UpdatedAt() = %v, want %v", tpl.UpdatedAt(), created)
	}
	if len(tpl.Tags()) != 2 || tpl.Tags()[0] != "meetings" {
		t.Errorf("Tags() = %v", tpl.Tags())
	}
	if tpl.Vector() != nil {
		t.Error("Vector() should be nil for new template")
	}
}

func TestNew_ClonesVector(t *testing.T) {
	p := validParams()
	p.Vector = []float32{1, 2}
	tpl, _ := New(p)

	p.Vector[0] = 99
	if tpl.Vector()[0] != 1 {
		t.Error("vector mutation leaked into template")
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"empty id", func(p *Params) { p.ID = "" }},
		{"bad id", func(p *Params) { p.ID = "has space" }},
		{"long id", func(p *Params) { p.ID = strings.Repeat("a", 257) }},
		{"blank title", func(p *Params) { p.Title = "   " }},
		{"long title", func(p *Params) { p.Title = strings.Repeat("t", MaxTitleLength+1) }},
		{"huge body", func(p *Params) { p.Body = strings.Repeat("b", MaxBodySize+1) }},
		{"no owner", func(p *Params) { p.OwnerID = "" }},
		{"negative usage", func(p *Params) { p.UsageCount = -1 }},
		{"bad visibility", func(p *Params) { p.Visibility = "team" }},
		{"no created_at", func(p *Params) { p.CreatedAt = time.Time{} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			if _, err := New(p); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_TooManyTags(t *testing.T) {
	p := validParams()
	p.Tags = make([]string, MaxTags+1)
	for i := range p.Tags {
		p.Tags[i] = "tag" + strings.Repeat("x", i)
	}
	if _, err := New(p); err == nil {
		t.Error("expected error for too many tags")
	}
}

func TestIsShared(t *testing.T) {
	cases := map[Visibility]bool{Private: false, Shared: true, Public: true}
	for v, want := range cases {
		p := validParams()
		p.Visibility = v
		tpl, err := New(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tpl.IsShared() != want {
			t.Errorf("%s: IsShared() = %v, want %v", v, tpl.IsShared(), want)
		}
	}
}

func TestWithVector(t *testing.T) {
	tpl, _ := New(validParams())
	withVec := tpl.WithVector([]float32{0.5})

	if tpl.Vector() != nil {
		t.Error("original template must stay unchanged")
	}
	if len(withVec.Vector()) != 1 {
		t.Errorf("expected 1-element vector, got %d", len(withVec.Vector()))
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Go ", "go", "", "SQL"})
	if len(got) != 2 || got[0] != "go" || got[1] != "sql" {
		t.Errorf("NormalizeTags = %v, want [go sql]", got)
	}
	if NormalizeTags(nil) != nil {
		t.Error("expected nil for nil input")
	}
}

func TestEmbeddingText(t *testing.T) {
	p := validParams()
	p.Title, p.Body = "Standup", "Yesterday and today"
	tpl, _ := New(p)
	if got := tpl.EmbeddingText(); got != "Standup\n\nYesterday and today" {
		t.Errorf("EmbeddingText = %q", got)
	}

	p.Body = ""
	titleOnly, _ := New(p)
	if got := titleOnly.EmbeddingText(); got != "Standup" {
		t.Errorf("EmbeddingText without body = %q", got)
	}
}
