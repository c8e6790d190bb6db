package checkups

import (
	"context"
	"fmt"

	"envdoctor/internal/doctor"
	"envdoctor/internal/versioning"
)

const ToolVersionID = "envdoctor"

// ToolVersionCheckup warns when the manifest expects a newer envdoctor.
type ToolVersionCheckup struct {
	Required string
	Current  string
}

func (c *ToolVersionCheckup) ID() string    { return ToolVersionID }
func (c *ToolVersionCheckup) Title() string { return "envdoctor version" }

func (c *ToolVersionCheckup) Examine(context.Context, *doctor.SharedState) (doctor.Diagnosis, error) {
	required, ok := versioning.TryParse(c.Required)
	if !ok {
		return doctor.Ok(c, "no version requirement"), nil
	}
	current, ok := versioning.TryParse(c.Current)
	if !ok {
		// Development builds carry no comparable version.
		return doctor.Ok(c, c.Current), nil
	}
	if current.Compare(required) < 0 {
		msg := fmt.Sprintf("newer version available: %s (running %s)", required, current)
		return doctor.Warn(c, msg, nil), nil
	}
	return doctor.Ok(c, current.String()), nil
}
