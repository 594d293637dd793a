// Package main provides the pastpapers CLI.
//
// Usage:
//
//	pastpapers download [--list FILE] [--out DIR] [URL...]
//	pastpapers scrape [--url URL] [--year N] [--type TEXT]
//	pastpapers serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
