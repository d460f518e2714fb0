// Copyright 2025 InsightAI Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var controlChars = regexp.MustCompile(`[\x00-\x1F\x7F]`)

// GenerateTurnID generates a unique turn identifier
func GenerateTurnID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID if crypto/rand fails
		return fmt.Sprintf("turn_%d", time.Now().UnixNano())
	}
	return "turn_" + hex.EncodeToString(bytes)
}

// ValidateTurnID validates a turn ID format
func ValidateTurnID(turnID string) bool {
	if turnID == "" {
		return false
	}
	matched, err := regexp.MatchString(`^turn_[a-f0-9]{16}$`, turnID)
	if err != nil {
		return false
	}
	return matched
}

// SanitizeUserInput strips control characters and caps input length
// before the text enters the transcript.
func SanitizeUserInput(input string) string {
	input = controlChars.ReplaceAllString(input, "")

	const maxInputLength = 10000
	if utf8.RuneCountInString(input) > maxInputLength {
		runes := []rune(input)
		input = string(runes[:maxInputLength])
	}

	return strings.TrimSpace(input)
}
