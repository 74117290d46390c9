package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// parseArgv splits a command string the way a POSIX shell would for plain
// words, quotes, and backslash escapes. No expansion happens except a
// leading "~/" on the program path. A string starting with "#" is empty.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var s argvSplitter
	for _, r := range input {
		s.feed(r)
	}
	switch {
	case s.escaped:
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	case s.quote != 0:
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	s.endWord()

	if len(s.words) > 0 {
		s.words[0] = expandHome(s.words[0])
	}
	return s.words, nil
}

type argvSplitter struct {
	words   []string
	word    strings.Builder
	inWord  bool
	quote   rune
	escaped bool
}

func (s *argvSplitter) feed(r rune) {
	switch {
	case s.escaped:
		s.escaped = false
		s.add(r)
	case r == '\\' && s.quote != '\'':
		s.escaped = true
		s.inWord = true
	case s.quote != 0 && r == s.quote:
		s.quote = 0
	case s.quote != 0:
		s.add(r)
	case r == '\'' || r == '"':
		s.quote = r
		s.inWord = true
	case unicode.IsSpace(r):
		s.endWord()
	default:
		s.add(r)
	}
}

func (s *argvSplitter) add(r rune) {
	s.word.WriteRune(r)
	s.inWord = true
}

// endWord keeps explicitly quoted empty words such as "".
func (s *argvSplitter) endWord() {
	if !s.inWord {
		return
	}
	s.words = append(s.words, s.word.String())
	s.word.Reset()
	s.inWord = false
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}
