package acl

import (
	"testing"
)

const sampleListing = `user::rwx
user:alice:rw-
group::r-x
group:lab:rwx	#effective:r-x
mask::r-x
other::---
default:user::rwx
default:group::r-x
default:other::---
`

func TestParseListing(t *testing.T) {
	entries := ParseListing(sampleListing)
	if len(entries) != 9 {
		t.Fatalf("Expected 9 entries, got %d", len(entries))
	}

	// Base owner entry
	if entries[0].Type != EntityUser || entries[0].Name != "" || entries[0].Permissions.String() != "rwx" {
		t.Errorf("Unexpected first entry: %+v", entries[0])
	}

	// Named user entry
	if entries[1].Name != "alice" || entries[1].Permissions.String() != "rw-" {
		t.Errorf("Unexpected named user entry: %+v", entries[1])
	}

	// The effective-rights comment after the tab must not leak into the entry.
	if entries[3].Name != "lab" || entries[3].Permissions.String() != "rwx" {
		t.Errorf("Effective comment not stripped: %+v", entries[3])
	}

	// Default entries carry the flag
	for i := 6; i < 9; i++ {
		if !entries[i].Default {
			t.Errorf("Expected entry %d to be a default entry: %+v", i, entries[i])
		}
	}
	if entries[6].String() != "default:user::rwx" {
		t.Errorf("Unexpected default entry render: %s", entries[6].String())
	}
}

func TestParseListingSkipsNoise(t *testing.T) {
	text := `# file: data/project1
# owner: alice
# group: lab

user::rwx
not an entry line
flags: -s-
other::r--
`
	entries := ParseListing(text)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].Type != EntityUser || entries[1].Type != EntityOther {
		t.Errorf("Unexpected entries: %+v", entries)
	}
}

func TestFormatListingRoundTrip(t *testing.T) {
	entries := ParseListing(sampleListing)
	formatted := FormatListing(entries)
	again := ParseListing(formatted)
	if len(again) != len(entries) {
		t.Fatalf("Round trip changed entry count: %d != %d", len(again), len(entries))
	}
	for i := range entries {
		if again[i] != entries[i] {
			t.Errorf("Entry %d changed in round trip: %+v != %+v", i, again[i], entries[i])
		}
	}
	if FormatListing(nil) != "" {
		t.Error("Expected empty string for empty listing")
	}
}

func TestSplitDefault(t *testing.T) {
	access, def := SplitDefault(ParseListing(sampleListing))
	if len(access) != 6 {
		t.Errorf("Expected 6 access entries, got %d", len(access))
	}
	if len(def) != 3 {
		t.Errorf("Expected 3 default entries, got %d", len(def))
	}
	for _, e := range access {
		if e.Default {
			t.Errorf("Default entry in access partition: %+v", e)
		}
	}
}
