package domain

import "time"

// Report is a render-ready snapshot for the terminal tooling.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Sections    []ReportSection
}

// ReportSection groups related rows under one heading.
type ReportSection struct {
	Title   string
	Summary map[string]interface{}
	Details []ReportDetail
}

// ReportDetail is one row in a section.
type ReportDetail struct {
	Name        string
	Value       interface{}
	Unit        string
	Description string
}
