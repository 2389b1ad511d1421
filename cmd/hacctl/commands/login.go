package commands

import (
	"fmt"
	"log"
	"net/http"

	"hacproxy/lib/serviceutil"

	"github.com/spf13/cobra"
)

var loginUsername *string
var loginPassword *string

func init() {
	loginUsername = loginCmd.Flags().StringP("username", "u", "", "The portal username.")
	loginPassword = loginCmd.Flags().StringP("password", "p", "", "The portal password.")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login -u <username> -p <password>",
	Short: "Logs in to the portal and saves the session for later commands.",
	Run: func(cmd *cobra.Command, args []string) {
		client := newApi()

		var apiErr apiError
		res, err := client.http.R().
			SetContext(cmd.Context()).
			SetBody(map[string]string{
				"username": *loginUsername,
				"password": *loginPassword,
			}).
			SetError(&apiErr).
			Post("/login")
		if err != nil {
			serviceutil.Fatal("failed to reach the proxy server", err)
		}
		if res.StatusCode() != http.StatusOK {
			log.Fatalf("login failed (%d): %s", res.StatusCode(), apiErr.Error)
		}

		client.saveSession(res)
		fmt.Println("logged in")
	},
}
