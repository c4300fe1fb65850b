package main

import (
	"os"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
