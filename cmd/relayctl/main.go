package main

import (
	"log"

	"github.com/raizessolucoes/arco-relay/cmd/relayctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
