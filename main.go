package main

import (
	"log"

	"github.com/Ananth-NQI/aira-gateway/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
