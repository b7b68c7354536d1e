package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionToken_IsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name    string
		expires *time.Time
		want    bool
	}{
		{"no expiry", nil, false},
		{"expired", &past, true},
		{"expires exactly now", &now, true},
		{"still valid", &future, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := &SessionToken{ExpiresAt: tt.expires}
			assert.Equal(t, tt.want, tok.IsExpired(now))
		})
	}
}
