package homeaccess

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"hacproxy/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const schedulePath = "/HomeAccess/Content/Student/DailySchedule.aspx"

const scheduleColumnCount = 5

// the daily schedule table renders rows with one of two alternating style
// classes, both carry data
const scheduleRowSelector = "#plnMain_dgSchedule tr.sg-asp-table-data-row, " +
	"#plnMain_dgSchedule tr.sg-asp-table-data-row-alt"

// ScheduleEntry is one row of the daily schedule table, cell text verbatim
// apart from whitespace trimming.
type ScheduleEntry struct {
	Period      string `json:"period"`
	Course      string `json:"course"`
	Description string `json:"description"`
	Teacher     string `json:"teacher"`
	Room        string `json:"room"`
}

// ScheduleDate is a plain calendar date, the portal has no notion of
// timezones.
type ScheduleDate struct {
	Year  int
	Month int
	Day   int
}

// Format renders the date the way the portal's query string expects.
func (d ScheduleDate) Format() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Month, d.Day, d.Year)
}

// FetchSchedule retrieves the daily schedule for the given username and
// date. The caller must already hold an authenticated jar, this method does
// not re-authenticate. An empty result is valid and means no classes that
// day.
func (c *Client) FetchSchedule(ctx context.Context, username string, date ScheduleDate) ([]ScheduleEntry, error) {
	ctx, span := tracer.Start(ctx, "client:FetchSchedule")
	defer span.End()

	studentId := c.studentIdRule(username)
	span.SetAttributes(
		attribute.String("student_id", studentId),
		attribute.String("date", date.Format()),
	)

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"student_id":   studentId,
			"ScheduleDate": date.Format(),
		}).
		Get(schedulePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch schedule page")
		return nil, fmt.Errorf("fetch schedule page: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		err := fmt.Errorf("schedule page returned status %d", res.StatusCode())
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse schedule html")
		return nil, fmt.Errorf("parse schedule page: %w", err)
	}

	rows := htmlutil.ExtractRows(ctx, doc, scheduleRowSelector, scheduleColumnCount)
	entries := make([]ScheduleEntry, len(rows))
	for i, row := range rows {
		entries[i] = ScheduleEntry{
			Period:      row[0],
			Course:      row[1],
			Description: row[2],
			Teacher:     row[3],
			Room:        row[4],
		}
	}

	span.SetAttributes(attribute.Int("entries", len(entries)))
	return entries, nil
}
