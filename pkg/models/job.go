package models

import (
	"time"
)

type DocumentKind int

const (
	KindPDF DocumentKind = iota
	KindSpreadsheet
)

func (k DocumentKind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindSpreadsheet:
		return "spreadsheet"
	default:
		return "unknown"
	}
}

type RoutingClass int

const (
	ClassStandard RoutingClass = iota
	ClassMonthly
)

func (c RoutingClass) String() string {
	if c == ClassMonthly {
		return "monthly"
	}
	return "standard"
}

// JobDescriptor is one file destined for printing and archival.
type JobDescriptor struct {
	Path  string
	Name  string
	Kind  DocumentKind
	Class RoutingClass
}

type PageDimensions struct {
	Width  float64
	Height float64
}

func (d PageDimensions) Landscape() bool {
	return d.Width > d.Height
}

// DirectoryBatch groups the jobs of one source directory. Depth is the
// number of path elements below the source root (root itself is 0).
type DirectoryBatch struct {
	Dir   string
	Rel   string
	Depth int
	Jobs  []JobDescriptor
}

type ArchiveResult struct {
	Source      string
	Destination string
	Pruned      []string
}

type JobFailure struct {
	Job JobDescriptor
	Err error
}

type RunReport struct {
	RunID      string
	StartTime  time.Time
	EndTime    time.Time
	Discovered int
	Printed    int
	Recovered  int
	Archived   int
	Failed     int
	Pruned     []string
	Failures   []JobFailure
	Aborted    bool
}

func (r *RunReport) Succeeded() bool {
	return r.Failed == 0 && !r.Aborted
}
