// Command krugctl analyzes websites and manages saved reports from the
// command line.
package main

func main() {
	Execute()
}
