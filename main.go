package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/acg-climbing/sessions-api/cmd/app"
)

// @title        ACG sessions API
// @version      1.0
// @description  Climbing sessions, events and participants for the adaptive climbing group.
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
