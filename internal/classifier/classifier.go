// Package classifier turns file names into print jobs.
package classifier

import (
	"path/filepath"
	"strings"

	"github.com/kpauljoseph/printdrain/pkg/models"
)

const (
	// LockFilePrefix marks the transient owner files spreadsheet editors
	// leave next to open documents.
	LockFilePrefix = "~$"

	// MonthlyMarker routes a file to the monthly-statement profile.
	MonthlyMarker = "月结单"
)

var kindsByExt = map[string]models.DocumentKind{
	".pdf":  models.KindPDF,
	".xls":  models.KindSpreadsheet,
	".xlsx": models.KindSpreadsheet,
}

func IsLockFile(name string) bool {
	return strings.HasPrefix(name, LockFilePrefix)
}

func IsMonthly(name string) bool {
	return strings.Contains(name, MonthlyMarker)
}

// Classify maps a bare file name to a job. ok is false for lock files and
// unsupported extensions.
func Classify(name string) (job models.JobDescriptor, ok bool) {
	if IsLockFile(name) {
		return models.JobDescriptor{}, false
	}

	kind, known := kindsByExt[strings.ToLower(filepath.Ext(name))]
	if !known {
		return models.JobDescriptor{}, false
	}

	class := models.ClassStandard
	if IsMonthly(name) {
		class = models.ClassMonthly
	}

	return models.JobDescriptor{
		Name:  name,
		Kind:  kind,
		Class: class,
	}, true
}

// ClassifyPath classifies the base name of path and records the absolute
// path on the job.
func ClassifyPath(path string) (models.JobDescriptor, bool) {
	job, ok := Classify(filepath.Base(path))
	if !ok {
		return job, false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	job.Path = abs
	return job, true
}
