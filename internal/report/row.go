// Package report assembles one CSV row per sent campaign, cross-referencing
// metrics with the archived document on disk.
package report

import (
	"fmt"
	"strconv"
)

// Columns in output order.
var columns = []string{
	"Campaign ID",
	"Subject Line",
	"Preheader",
	"Audience/List",
	"Send Date",
	"Emails Sent",
	"Unique Opens",
	"Open Rate (%)",
	"Unique Clicks",
	"Click Rate (%)",
	"Hard Bounces",
	"Soft Bounces",
	"Unsubscribes",
	"Local File Path",
}

// Header returns a copy of the column names.
func Header() []string {
	return append([]string(nil), columns...)
}

// Row is one report line.
type Row struct {
	CampaignID   string
	Subject      string
	Preheader    string
	Audience     string
	SendDate     string
	EmailsSent   int
	UniqueOpens  int
	OpenRate     float64 // percent, 0-100
	UniqueClicks int
	ClickRate    float64 // percent, 0-100
	HardBounces  int
	SoftBounces  int
	Unsubscribes int
	FilePath     string
}

// Record renders the row in column order.
func (r Row) Record() []string {
	return []string{
		r.CampaignID,
		r.Subject,
		r.Preheader,
		r.Audience,
		r.SendDate,
		strconv.Itoa(r.EmailsSent),
		strconv.Itoa(r.UniqueOpens),
		fmt.Sprintf("%.2f", r.OpenRate),
		strconv.Itoa(r.UniqueClicks),
		fmt.Sprintf("%.2f", r.ClickRate),
		strconv.Itoa(r.HardBounces),
		strconv.Itoa(r.SoftBounces),
		strconv.Itoa(r.Unsubscribes),
		r.FilePath,
	}
}
