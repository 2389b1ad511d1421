package commands

import (
	"fmt"
	"log"
	"net/http"

	"hacproxy/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(logoutCmd)
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Destroys the server-side session and forgets the local state.",
	Run: func(cmd *cobra.Command, args []string) {
		client := newApi()

		var apiErr apiError
		res, err := client.http.R().
			SetContext(cmd.Context()).
			SetError(&apiErr).
			Post("/logout")
		if err != nil {
			serviceutil.Fatal("failed to reach the proxy server", err)
		}
		if res.StatusCode() != http.StatusOK {
			log.Fatalf("logout failed (%d): %s", res.StatusCode(), apiErr.Error)
		}

		client.clearSession()
		fmt.Println("logged out")
	},
}
