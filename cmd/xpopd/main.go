// Package main provides the CLI entrypoint for xpopd.
package main

func main() {
	Execute()
}
