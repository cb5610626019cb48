package acl

import (
	"bufio"
	"strings"
)

// ParseListing parses the line oriented output of getfacl -c into entries
// in listing order. Blank lines, comment lines and anything else that does
// not look like an entry are skipped; a listing never fails to parse.
func ParseListing(text string) []Entry {
	var entries []Entry
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		entry, ok := parseLine(sc.Text())
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func parseLine(line string) (Entry, bool) {
	// getfacl appends "\t#effective:..." when the mask narrows an entry.
	if i := strings.IndexByte(line, '\t'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Entry{}, false
	}

	var def bool
	if rest, ok := strings.CutPrefix(line, "default:"); ok {
		def = true
		line = rest
	}

	fields := strings.SplitN(line, ":", 3)
	if len(fields) != 3 {
		return Entry{}, false
	}
	typ, err := ParseEntityType(fields[0])
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Type:        typ,
		Name:        fields[1],
		Permissions: permissionsFromListing(fields[2]),
		Default:     def,
	}, true
}

// FormatListing renders entries back into the getfacl line form. For any
// valid listing, FormatListing(ParseListing(text)) reproduces its entry
// lines.
func FormatListing(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// SplitDefault partitions a listing into access entries and default
// entries, preserving order within each class.
func SplitDefault(entries []Entry) (access, def []Entry) {
	for _, e := range entries {
		if e.Default {
			def = append(def, e)
		} else {
			access = append(access, e)
		}
	}
	return access, def
}
