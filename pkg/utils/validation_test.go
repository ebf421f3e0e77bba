package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "thoughtgraph/pkg/errors"
)

type sample struct {
	ID    string   `validate:"omitempty,thoughtid"`
	Tags  []string `validate:"dive,tagid"`
	Terms []string `validate:"required,min=1"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		input      sample
		wantFields []string
	}{
		{
			name:  "valid",
			input: sample{ID: "note_1", Tags: []string{"#Work", "a/b"}, Terms: []string{"x"}},
		},
		{
			name:       "bad thought id",
			input:      sample{ID: "no spaces", Terms: []string{"x"}},
			wantFields: []string{"id"},
		},
		{
			name:       "bad tag and missing terms",
			input:      sample{Tags: []string{"ok", "not ok"}},
			wantFields: []string{"tags[1]", "terms"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			appErr := pkgerrors.GetAppError(err)
			require.NotNil(t, appErr)
			for _, f := range tt.wantFields {
				assert.Contains(t, appErr.Details, f)
			}
		})
	}
}

func TestHumanizeAge(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", HumanizeAge(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", HumanizeAge(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", HumanizeAge(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", HumanizeAge(now.Add(-49*time.Hour), now))
	assert.Equal(t, "2024-01-10T12:00:00Z", FormatTimestamp(now))
}
