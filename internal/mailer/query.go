// Package mailer owns the Gmail side of the workflow: the sent-order check,
// invoice mail search with PDF attachments, and draft creation.
package mailer

import (
	"fmt"
	"strconv"
	"strings"
)

// searchDaysBack bounds all order-email searches. The sent check only has to
// cover the current ordering cycle.
const searchDaysBack = 30

// monthDay renders a canonical date as M/D without leading zeros, the form
// the order email subjects carry.
func monthDay(date string) string {
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return date
	}
	month, _ := strconv.Atoi(parts[1])
	day, _ := strconv.Atoi(parts[2])
	return fmt.Sprintf("%d/%d", month, day)
}

// OrderEmailQuery builds the sent-mail search that decides whether the order
// email for a period has already gone out. Both period endpoints and the
// subject keyword must appear in the subject.
func OrderEmailQuery(startDate, endDate, subjectKeyword string) string {
	return fmt.Sprintf("in:sent subject:%s subject:%s subject:%s newer_than:%dd",
		monthDay(startDate), monthDay(endDate), subjectKeyword, searchDaysBack)
}

// OrderEmailSubject renders the subject line for order and change emails,
// e.g. "12/15~12/19のお弁当について". Days are zero-padded here, unlike the
// search form.
func OrderEmailSubject(startDate, endDate string) string {
	start := strings.Split(startDate, "/")
	end := strings.Split(endDate, "/")
	if len(start) != 3 || len(end) != 3 {
		return ""
	}
	sm, _ := strconv.Atoi(start[1])
	em, _ := strconv.Atoi(end[1])
	return fmt.Sprintf("%d/%s~%d/%sのお弁当について", sm, start[2], em, end[2])
}
