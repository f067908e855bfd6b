package auth

import (
	"log"
	"os"
)

var managerUsername string
var managerPassword string // Plain text for MVP

// LoadManagerCredentials loads the manager username and password from
// environment variables. It logs a warning if they are not set.
func LoadManagerCredentials() {
	managerUsername = os.Getenv("MANAGER_USERNAME")
	managerPassword = os.Getenv("MANAGER_PASSWORD")

	if managerUsername == "" {
		log.Println("WARNING: MANAGER_USERNAME environment variable not set.")
	}
	if managerPassword == "" {
		log.Println("WARNING: MANAGER_PASSWORD environment variable not set.")
	}
}
