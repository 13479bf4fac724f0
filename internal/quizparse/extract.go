package quizparse

import (
	"errors"
	"strings"
)

var (
	errNoObject   = errors.New("response contains no JSON object")
	errUnbalanced = errors.New("response contains an unterminated JSON object")
)

// Extract returns the first balanced {...} block of raw after removing
// markdown code fences. Braces inside JSON strings are ignored.
func Extract(raw string) (string, error) {
	s := stripFences(raw)

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", errNoObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errUnbalanced
}

// stripFences drops ``` and ```json marker lines.
func stripFences(raw string) string {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
