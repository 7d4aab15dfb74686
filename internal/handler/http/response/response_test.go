package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageMeta(t *testing.T) {
	cases := []struct {
		name  string
		limit int
		total int64
		pages int
	}{
		{"exact", 20, 40, 2},
		{"partial last page", 20, 41, 3},
		{"empty", 20, 0, 0},
		{"zero limit", 0, 10, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			meta := NewPageMeta(1, c.limit, c.total)
			assert.Equal(t, c.pages, meta.TotalPages)
			assert.Equal(t, c.total, meta.TotalItems)
		})
	}
}

func TestValidationError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()

	ValidationError(rec, map[string]string{"lines[0].amount": "must be non-negative"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "must be non-negative", body.Error.Details["lines[0].amount"])
}
