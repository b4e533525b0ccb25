package api

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var lowerAddressPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// TokenNames 地址(小写) -> 展示名称
type TokenNames map[string]string

// LoadTokenNames reads a JSON object mapping addresses to display names.
// An empty path yields an empty table.
func LoadTokenNames(path string) (TokenNames, error) {
	names := TokenNames{}
	if path == "" {
		return names, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token names: %w", err)
	}

	var entries map[string]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse token names: %w", err)
	}

	for addr, name := range entries {
		if name == "" {
			continue
		}
		names[strings.ToLower(addr)] = name
	}
	return names, nil
}

// normalizeLowerAddress 返回小写地址，不合法时返回空串
func normalizeLowerAddress(address string) string {
	a := strings.ToLower(address)
	if !lowerAddressPattern.MatchString(a) {
		return ""
	}
	return a
}
