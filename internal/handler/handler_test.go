package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name    string
		data    any
		logged  bool
		bodySet bool
	}{
		{name: "encodable value", data: map[string]int{"total": 330}, bodySet: true},
		{name: "unencodable value is logged", data: map[string]any{"ch": make(chan int)}, logged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			w := httptest.NewRecorder()

			writeJSON(w, http.StatusOK, tt.data, zerolog.New(&logs))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.bodySet {
				assert.JSONEq(t, `{"total": 330}`, w.Body.String())
			}
			if tt.logged {
				assert.Contains(t, logs.String(), "failed to encode response")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}
