package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordUnmarshalKeepsRawBytes(t *testing.T) {
	raw := `{"id":1796236,"name":"Shanghai","country":"CN","population":22315474}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	assert.Equal(t, int64(1796236), rec.ID)
	assert.Equal(t, "Shanghai", rec.Name)
	assert.JSONEq(t, raw, string(rec.Raw))

	// Marshal round-trips the original bytes untouched.
	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, raw, string(out))
}

func TestRecordUnmarshalRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing id", `{"name":"Shanghai"}`},
		{"missing name", `{"id":1}`},
		{"not an object", `"shanghai"`},
		{"invalid json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Record
			assert.Error(t, json.Unmarshal([]byte(tt.input), &rec))
		})
	}
}

func TestNormalizedName(t *testing.T) {
	rec := Record{Name: "New York City"}
	assert.Equal(t, "new york city", rec.NormalizedName())
}

func TestPrefixes(t *testing.T) {
	assert.Equal(t, []string{"s", "sh", "sha"}, Prefixes("sha"))
	assert.Empty(t, Prefixes(""))
}

func TestPrefixesRuneBoundaries(t *testing.T) {
	// Multi-byte names must split on runes, not bytes.
	assert.Equal(t, []string{"z", "zü", "zür"}, Prefixes("zür"))
}
