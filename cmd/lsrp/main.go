// Command lsrp plans, generates, benchmarks and simulates LSRP scenarios.
package main

import "github.com/elektrokombinacija/lsrp-capaset/internal/cli"

func main() {
	cli.Execute()
}
