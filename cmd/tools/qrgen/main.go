package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/vichambarde/serverroom/internal/config"
	"github.com/vichambarde/serverroom/pkg/qrcode"
)

// qrgen writes the request form QR code to a PNG file for printing.
func main() {
	var (
		url  = flag.String("url", "", "Form URL (overrides FORM_URL env var)")
		size = flag.Int("size", 512, "Image width and height in pixels")
		out  = flag.String("out", "form-qr.png", "Output file")
	)
	flag.Parse()

	content := *url
	if content == "" {
		content = config.Load().FormURL
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}

	if err := qrcode.WritePNG(f, content, *size); err != nil {
		f.Close()
		log.Fatalf("Failed to render QR code: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}

	fmt.Printf("Wrote %s for %s\n", *out, content)
}
