package main

import (
	_ "github.com/joho/godotenv/autoload"

	"github.com/nikhilchitrapu/portfolio/cmd"
)

func main() {
	cmd.Execute()
}
