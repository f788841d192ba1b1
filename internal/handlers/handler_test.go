package handlers

import (
	"errors"
	"testing"
)

func TestRegistry(t *testing.T) {
	tests := []struct {
		name    string
		hs      []Handler
		wantErr bool
		wantDup bool
		wantLen int
	}{
		{
			name:    "keeps order",
			hs:      []Handler{NewBase("ping", ""), NewBase("info", "")},
			wantLen: 2,
		},
		{
			name:    "duplicate name ignoring case",
			hs:      []Handler{NewBase("ping", ""), NewBase("PING", "")},
			wantErr: true,
			wantDup: true,
			wantLen: 1,
		},
		{
			name:    "empty name",
			hs:      []Handler{NewBase("", "")},
			wantErr: true,
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Register(tt.hs...)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantDup && !errors.Is(err, ErrDuplicate) {
				t.Fatalf("Register() error = %v, want ErrDuplicate", err)
			}

			if got := r.Len(); got != tt.wantLen {
				t.Errorf("Len() = %d, want %d", got, tt.wantLen)
			}
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewBase("ping", "Replies"), NewBase("Info", "")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	h, ok := r.Get("PING")
	if !ok || h.Description() != "Replies" {
		t.Errorf("Get(PING) = %v, %v", h, ok)
	}
	if _, ok := r.Get("help"); ok {
		t.Error("Get(help) found a handler")
	}

	all := r.All()
	if len(all) != 2 || all[0].Name() != "ping" || all[1].Name() != "Info" {
		t.Errorf("All() = %v", all)
	}

	all[0] = NewBase("changed", "")
	if r.All()[0].Name() != "ping" {
		t.Error("All() exposed the registry slice")
	}
}
