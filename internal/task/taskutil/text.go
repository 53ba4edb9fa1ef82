package taskutil

import (
	"bufio"
	"strings"
)

const maxScanTokenSize = 1024 * 1024

func HasExactLine(output, line string) (bool, error) {
	found := false
	if err := ScanLines(output, func(text string) {
		if text == line {
			found = true
		}
	}); err != nil {
		return false, err
	}
	return found, nil
}

func ScanLines(output string, fn func(string)) error {
	scanner := bufio.NewScanner(strings.NewReader(output))
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxScanTokenSize)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	return scanner.Err()
}

// ParseKeyValueSettings parses "Key value" lines the way sshd reads its
// config: comments and blanks skipped, keys lowercased, first token wins as
// the key and the second as the value, inline comments stripped.
func ParseKeyValueSettings(output string) (map[string]string, error) {
	settings := make(map[string]string)
	if err := ScanLines(output, func(text string) {
		line := strings.TrimSpace(text)
		if line == "" || strings.HasPrefix(line, "#") {
			return
		}
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return
		}
		settings[strings.ToLower(fields[0])] = strings.ToLower(fields[1])
	}); err != nil {
		return nil, err
	}
	return settings, nil
}
