package id

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppIDUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    AppID
		wantErr bool
	}{
		{name: "number", input: `1`, want: "1"},
		{name: "large number", input: `9007199254740993`, want: "9007199254740993"},
		{name: "string", input: `"abc-1"`, want: "abc-1"},
		{name: "numeric string", input: `"2"`, want: "2"},
		{name: "null", input: `null`, want: ""},
		{name: "bool", input: `true`, wantErr: true},
		{name: "object", input: `{"id":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got AppID
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppIDMarshal(t *testing.T) {
	tests := []struct {
		id   AppID
		want string
	}{
		{"1", `1`},
		{"42", `42`},
		{"007", `"007"`},
		{"app-x", `"app-x"`},
		{"", `""`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(data), "id %q", tt.id)
	}
}

func TestAppIDIsZero(t *testing.T) {
	assert.True(t, AppID("").IsZero())
	assert.False(t, AppID("0").IsZero())
}

func TestNewRequestID(t *testing.T) {
	reqID := NewRequestID()

	parts := strings.Split(reqID.String(), "_")
	require.Len(t, parts, 2)
	assert.Equal(t, RequestPrefix, parts[0])
	assert.True(t, IsValid(parts[1]), "ULID part should be valid: %s", parts[1])
}

func TestIsValid(t *testing.T) {
	gen := NewGenerator()
	assert.True(t, IsValid(gen.Generate().String()))

	for _, invalid := range []string{"", "invalid", "1234567890", "zzzzzzzzzzzzzzzzzzzzzzzzzzz"} {
		assert.False(t, IsValid(invalid), "ID should be invalid: %s", invalid)
	}
}

func TestTimestamp(t *testing.T) {
	gen := NewGenerator()

	before := time.Now()
	ulidStr := gen.Generate().String()
	after := time.Now()

	ts, err := Timestamp(ulidStr)
	require.NoError(t, err)

	// ULID timestamps have millisecond precision
	assert.GreaterOrEqual(t, ts.UnixMilli(), before.UnixMilli())
	assert.LessOrEqual(t, ts.UnixMilli(), after.UnixMilli())
}

func TestConcurrentRequestIDs(t *testing.T) {
	const goroutines = 50
	const perGoroutine = 50

	var wg sync.WaitGroup
	ids := make(chan RequestID, goroutines*perGoroutine)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				ids <- NewRequestID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[RequestID]bool)
	for reqID := range ids {
		assert.False(t, seen[reqID], "duplicate request ID %s", reqID)
		seen[reqID] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestDefaultGenerator(t *testing.T) {
	assert.Same(t, Default(), Default())
}
