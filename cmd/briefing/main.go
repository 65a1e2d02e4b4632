package main

import (
	"os"

	"horse.fit/briefing/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
