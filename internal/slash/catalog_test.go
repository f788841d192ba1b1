package slash

import (
	"slices"
	"testing"
)

func names(cmds []Command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Name())
	}
	return out
}

func TestSnapshotLaterSyncKeySupersedes(t *testing.T) {
	first := NewMockCommand("first", Options{Name: "x", GuildID: "1"})
	other := NewMockCommand("other", Options{})
	second := NewMockCommand("second", Options{Name: "x", GuildID: "1"})

	snap := NewSnapshot([]Command{first, other, second}, nil)

	got, ok := snap.Lookup("1:x")
	if !ok {
		t.Fatal("Lookup(1:x) found nothing")
	}
	if got != Command(second) {
		t.Errorf("Lookup(1:x) = %s, want second", got.Name())
	}

	if staged := names(snap.Staged()); !slices.Equal(staged, []string{"second", "other"}) {
		t.Errorf("Staged() = %v, want [second other]", staged)
	}
	if routed := names(snap.Commands()); !slices.Equal(routed, []string{"first", "other", "second"}) {
		t.Errorf("Commands() = %v, want [first other second]", routed)
	}
}

func TestSnapshotScopes(t *testing.T) {
	cmds := []Command{
		NewMockCommand("ping", Options{}),
		NewMockCommand("config", Options{GuildIDs: []string{"42", "7"}}),
		NewMockCommand("audit", Options{GuildID: "7"}),
		NewMockCommand("info", Options{}),
	}

	snap := NewSnapshot(cmds, nil)

	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"global", names(snap.Global()), []string{"ping", "info"}},
		{"guild 42", names(snap.Guild("42")), []string{"config"}},
		{"guild 7", names(snap.Guild("7")), []string{"config", "audit"}},
		{"guild 99", names(snap.Guild("99")), []string{}},
		{"guild ids", snap.GuildIDs(), []string{"42", "7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !slices.Equal(tt.got, tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestSnapshotUnknownExcluded(t *testing.T) {
	fallback := NewMockCommand("fallback", Options{Unknown: true})
	second := NewMockCommand("fallback2", Options{Unknown: true})
	ping := NewMockCommand("ping", Options{})

	snap := NewSnapshot([]Command{fallback, ping, second}, nil)

	if got := snap.Unknown(); got != Command(fallback) {
		t.Errorf("Unknown() = %v, want fallback", got)
	}
	if got := names(snap.Commands()); !slices.Equal(got, []string{"ping"}) {
		t.Errorf("Commands() = %v, want [ping]", got)
	}
	if got := names(snap.Staged()); !slices.Equal(got, []string{"ping"}) {
		t.Errorf("Staged() = %v, want [ping]", got)
	}
}

func TestCatalogRebuildPublishesFreshSnapshot(t *testing.T) {
	c := newCatalog(t, NewMockCommand("ping", Options{}))

	first := c.Current()
	if first == nil || len(first.Commands()) != 1 {
		t.Fatalf("Current() = %v", first)
	}
	if c.Current() != first {
		t.Error("Current() rebuilt without a Rebuild() call")
	}

	if err := c.registry.Register(NewMockCommand("info", Options{})); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	second := c.Rebuild()
	if second == first {
		t.Error("Rebuild() returned the previous snapshot")
	}
	if got := names(c.Current().Commands()); !slices.Equal(got, []string{"ping", "info"}) {
		t.Errorf("Commands() = %v, want [ping info]", got)
	}
	if got := names(first.Commands()); !slices.Equal(got, []string{"ping"}) {
		t.Errorf("old snapshot changed: %v", got)
	}
}
