package main

import (
	"log"

	"github.com/jobhound/jobhound/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
