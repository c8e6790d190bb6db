package checkups

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"envdoctor/internal/doctor"
)

func TestToolVersionCheckup(t *testing.T) {
	tests := []struct {
		name     string
		required string
		current  string
		status   doctor.Status
	}{
		{"up to date", "1.2.0", "1.2.0", doctor.StatusOk},
		{"newer build", "1.2.0", "1.3.0", doctor.StatusOk},
		{"outdated", "1.2.0", "1.1.9", doctor.StatusWarning},
		{"development build", "1.2.0", "dev", doctor.StatusOk},
		{"no requirement", "", "1.0.0", doctor.StatusOk},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &ToolVersionCheckup{Required: tt.required, Current: tt.current}
			d, err := c.Examine(context.Background(), doctor.NewSharedState())
			require.NoError(t, err)
			assert.Equal(t, tt.status, d.Status)
			assert.Equal(t, ToolVersionID, d.CheckupID)
			assert.False(t, d.HasSolution())
		})
	}
}
