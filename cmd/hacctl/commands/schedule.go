package commands

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"hacproxy/lib/serviceutil"
	"hacproxy/services/hac"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule [YYYY-MM-DD]",
	Short: "Prints the class schedule for a date, today by default.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		date := time.Now().Format("2006-01-02")
		if len(args) > 0 {
			date = args[0]
		}

		client := newApi()

		var result hac.ScheduleResult
		var apiErr apiError
		res, err := client.http.R().
			SetContext(cmd.Context()).
			SetBody(map[string]string{"date": date}).
			SetResult(&result).
			SetError(&apiErr).
			Post("/schedule")
		if err != nil {
			serviceutil.Fatal("failed to reach the proxy server", err)
		}
		if res.StatusCode() == http.StatusUnauthorized {
			log.Fatal("not logged in, run `hacctl login` first")
		}
		if res.StatusCode() != http.StatusOK {
			log.Fatalf("schedule fetch failed (%d): %s", res.StatusCode(), apiErr.Error)
		}
		client.saveSession(res)

		fmt.Printf("schedule for %s\n", result.Date)

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Period", "Course", "Description", "Teacher", "Room"})
		for _, entry := range result.Schedule {
			t.AppendRow(table.Row{
				entry.Period, entry.Course, entry.Description, entry.Teacher, entry.Room,
			})
		}
		t.Render()
	},
}
