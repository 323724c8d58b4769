package cmegroup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ContractExpiry is one row of a product expiration calendar
type ContractExpiry struct {
	ProductCode string // e.g. SR3U5
	LastTrade   time.Time
	Settlement  time.Time
}

// calendarPaths maps product roots to their calendar page paths
var calendarPaths = map[string]string{
	"SR3": "/markets/interest-rates/stirs/three-month-sofr.calendar.html",
	"CL":  "/markets/energy/crude-oil/light-sweet-crude.calendar.html",
	"ES":  "/markets/equities/sp/e-mini-sandp500.calendar.html",
}

// FetchExpirationCalendar scrapes the expiration calendar of a product
// root. Rows with unparsable dates are skipped; an empty result is an
// error since it means the page layout changed.
func (c *Client) FetchExpirationCalendar(ctx context.Context, root string) ([]ContractExpiry, error) {
	path, ok := calendarPaths[root]
	if !ok {
		return nil, fmt.Errorf("no calendar page known for root %q", root)
	}

	html, err := c.fetchHTML(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar for %s: %w", root, err)
	}

	entries, err := parseCalendarHTML(html)
	if err != nil {
		return nil, fmt.Errorf("parse calendar for %s: %w", root, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("calendar page for %s yielded no rows", root)
	}

	c.logger.WithFields(map[string]interface{}{
		"root":  root,
		"count": len(entries),
	}).Debug("Fetched expiration calendar")
	return entries, nil
}

// parseCalendarHTML extracts the contract rows from a calendar table.
// Expected columns: product code, first trade, last trade, settlement.
func parseCalendarHTML(html string) ([]ContractExpiry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var entries []ContractExpiry
	doc.Find("table.cmeProductCalendar tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		code := strings.TrimSpace(cells.Eq(0).Text())
		if code == "" {
			return
		}

		lastTrade, err := parseCalendarDate(cells.Eq(2).Text())
		if err != nil {
			return
		}
		settlement, err := parseCalendarDate(cells.Eq(3).Text())
		if err != nil {
			return
		}

		entries = append(entries, ContractExpiry{
			ProductCode: code,
			LastTrade:   lastTrade,
			Settlement:  settlement,
		})
	})

	return entries, nil
}

// parseCalendarDate handles the "16 Sep 2025" format the calendar
// pages use
func parseCalendarDate(s string) (time.Time, error) {
	return time.ParseInLocation("02 Jan 2006", strings.TrimSpace(s), time.UTC)
}
