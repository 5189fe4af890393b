package usecase

import (
	"fmt"
	"path/filepath"
	"time"
)

const artifactTimeLayout = "20060102_150405"

// artifactName builds <basename>_<YYYYMMDD_HHMMSS>.bak from local wall
// clock time at second resolution.
func artifactName(sourcePath string, at time.Time) string {
	return fmt.Sprintf("%s_%s.bak", filepath.Base(sourcePath), at.Local().Format(artifactTimeLayout))
}
