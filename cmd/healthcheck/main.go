package main

import (
	"cmp"
	"net/http"
	"os"
	"time"
)

func main() {
	port := cmp.Or(os.Getenv("PORLARR_PORT"), "8383")
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get("http://localhost:" + port + "/version")
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}

	os.Exit(0)
}
