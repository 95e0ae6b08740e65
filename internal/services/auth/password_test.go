// Copyright 2025 The devshelf authors
// Licensed under the EUPL-1.2

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordValidator(t *testing.T) {
	v := DefaultPasswordValidator()

	tests := []struct {
		name     string
		password string
		attrs    []string
		wantCode string
	}{
		{"valid", "sufficiently-strong", nil, ""},
		{"too short", "short", nil, "min_length"},
		{"entirely numeric", "12345678", nil, "entirely_numeric"},
		{"contains username", "xx-alicesmith-xx", []string{"alicesmith"}, "too_similar"},
		{"contains email local part", "my-alicesmith-pw", []string{"alicesmith@example.com"}, "too_similar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.password, tt.attrs...)

			if tt.wantCode == "" {
				assert.True(t, result.Valid)
				return
			}
			assert.False(t, result.Valid)
			codes := make([]string, len(result.Errors))
			for i, e := range result.Errors {
				codes[i] = e.Code
			}
			assert.Contains(t, codes, tt.wantCode)
		})
	}
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "alicesmith", sanitizeUsername("Alice Smith!"))
	assert.Equal(t, "user42", sanitizeUsername("User 42"))
	assert.Equal(t, "", sanitizeUsername("!!!"))
}
