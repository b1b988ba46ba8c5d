package fdfsproto

import (
	"fmt"
	"strings"

	"github.com/happyfish100/fastdfs-sub005/internal/errs"
)

// FileID identifies a stored file as "group/path", where path has the form
// "HH/HH/name.ext" with uppercase hex digits.
type FileID struct {
	Group string
	Path  string
}

// String renders the canonical "group/path" form.
func (f FileID) String() string {
	return f.Group + "/" + f.Path
}

// ParseFileID splits and validates a "group/path" string. InvalidArgument
// covers a missing separator, an empty group, or a path that doesn't match
// the HH/HH/name.ext shape.
func ParseFileID(s string) (FileID, error) {
	idx := strings.IndexByte(s, '/')
	if idx <= 0 || idx == len(s)-1 {
		return FileID{}, errs.New(errs.InvalidArgument, fmt.Sprintf("fdfsproto: malformed file id %q", s))
	}
	group, path := s[:idx], s[idx+1:]
	if err := validatePath(path); err != nil {
		return FileID{}, err
	}
	return FileID{Group: group, Path: path}, nil
}

func validatePath(path string) error {
	parts := strings.SplitN(path, "/", 3)
	if len(parts) != 3 {
		return errs.New(errs.InvalidArgument, fmt.Sprintf("fdfsproto: malformed path %q, want HH/HH/name.ext", path))
	}
	for _, hh := range parts[:2] {
		if !isUpperHexPair(hh) {
			return errs.New(errs.InvalidArgument, fmt.Sprintf("fdfsproto: malformed path segment %q, want two uppercase hex digits", hh))
		}
	}
	if parts[2] == "" {
		return errs.New(errs.InvalidArgument, "fdfsproto: empty filename in path")
	}
	return nil
}

func isUpperHexPair(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if !isUpperHexDigit(r) {
			return false
		}
	}
	return true
}

func isUpperHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F')
}
