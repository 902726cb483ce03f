package protocol

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseTraffic reads a prepared traffic capture. Each line is a direction
// ("O" outbound, "I" inbound) followed by the report as hex, report ID first.
// Inbound lines, blank lines and "#" comments are skipped.
func ParseTraffic(r io.Reader) ([]Report, error) {
	var out []Report
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		dir, data, _ := strings.Cut(s, " ")
		switch dir {
		case "I":
			continue
		case "O":
		default:
			return nil, fmt.Errorf("traffic line %d: direction %q", line, dir)
		}
		b, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(data), " ", ""))
		if err != nil {
			return nil, fmt.Errorf("traffic line %d: %w", line, err)
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("traffic line %d: empty report", line)
		}
		out = append(out, Report(b))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadTraffic parses a traffic file from disk.
func LoadTraffic(path string) ([]Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open traffic: %w", err)
	}
	defer f.Close()
	return ParseTraffic(f)
}
