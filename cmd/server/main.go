package main

import "github.com/lepens-foundation/lepens/app"

func main() {
	app.New(nil).Run()
}
