package main

import (
	"flag"
	"log"
	"os"

	"github.com/df07/go-sphere-raytracer/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	scenesDir := flag.String("scenes", "", "Directory with scene files (default: ./scenes or ../scenes)")
	flag.Parse()

	// Create and start web server
	webServer := server.NewServer(*port, *scenesDir)

	log.Printf("Sphere Raytracer Web Server")
	log.Printf("Try http://localhost:%d/api/render?scene=random&width=400&height=225", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
