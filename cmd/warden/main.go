// warden — trust gateway for user-generated content.
package main

import "github.com/wardenlabs/warden/internal/cli"

func main() {
	cli.Execute()
}
