package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Usage example on the command line:
// > go run main.go -url=http://localhost:8080/healthz -timeout=2m
func main() {
	url := flag.String("url", "http://localhost:8080/healthz", "the health endpoint to poll")
	timeout := flag.Duration("timeout", 2*time.Minute, "how long to wait before giving up")
	interval := flag.Duration("interval", 5*time.Second, "the pause between two polls")
	flag.Parse()

	client := &http.Client{Timeout: *interval}
	deadline := time.Now().Add(*timeout)
	var totalWaitTime time.Duration
	for {
		res, err := client.Get(*url)
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				fmt.Println(res.Status)
				return
			}
			fmt.Println(res.Status)
		} else {
			fmt.Println(err)
		}
		if time.Now().Add(*interval).After(deadline) {
			fmt.Printf("Service not available after %s", totalWaitTime)
			fmt.Println()
			os.Exit(1)
		}
		totalWaitTime += *interval
		fmt.Printf("Waiting %s", totalWaitTime)
		fmt.Println()
		time.Sleep(*interval)
	}
}
