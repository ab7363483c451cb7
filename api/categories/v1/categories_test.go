package v1

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nerrs "github.com/jdholdren/newscat/internal/errors"
)

func TestClassifyRequest_Validate(t *testing.T) {
	assert.NoError(t, ClassifyRequest{Titles: []string{"Cup final"}}.Validate())

	tests := []struct {
		name   string
		req    ClassifyRequest
		fields []string
	}{
		{"empty", ClassifyRequest{}, []string{"titles"}},
		{"blank title", ClassifyRequest{Titles: []string{"ok", "  "}}, []string{"titles[1]"}},
		{"too many", ClassifyRequest{Titles: strings.Split(strings.Repeat("x,", MaxClassifyTitles), ",")}, []string{"titles", "titles[100]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			var nerr *nerrs.Error
			require.True(t, errors.As(err, &nerr))
			assert.Equal(t, http.StatusBadRequest, nerr.Status)

			var fields []string
			for _, d := range nerr.Details {
				fields = append(fields, d.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}
