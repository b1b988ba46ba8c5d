package fdfsproto

import "strings"

// Metadata separators: 0x01 between key/value pairs (record separator),
// 0x02 between a key and its value (field separator).
const (
	metaRecordSep = 0x01
	metaFieldSep  = 0x02
)

// Metadata is an ordered list of key/value pairs, preserving duplicate keys
// and insertion order exactly as they appeared on the wire.
type Metadata []MetaPair

// MetaPair is one key/value entry in a Metadata list.
type MetaPair struct {
	Key   string
	Value string
}

// Encode renders Metadata using the wire separators.
func Encode(m Metadata) []byte {
	var b strings.Builder
	for i, p := range m {
		if i > 0 {
			b.WriteByte(metaRecordSep)
		}
		b.WriteString(p.Key)
		b.WriteByte(metaFieldSep)
		b.WriteString(p.Value)
	}
	return []byte(b.String())
}

// Decode parses the wire metadata encoding back into an ordered Metadata
// list. An entry missing its field separator is treated as a key with an
// empty value, matching the original format's tolerance for malformed
// single entries rather than rejecting the whole blob.
func Decode(raw []byte) Metadata {
	if len(raw) == 0 {
		return nil
	}
	records := strings.Split(string(raw), string(rune(metaRecordSep)))
	out := make(Metadata, 0, len(records))
	for _, rec := range records {
		if rec == "" {
			continue
		}
		idx := strings.IndexByte(rec, metaFieldSep)
		if idx < 0 {
			out = append(out, MetaPair{Key: rec})
			continue
		}
		out = append(out, MetaPair{Key: rec[:idx], Value: rec[idx+1:]})
	}
	return out
}
