// Command narration-client is a small CLI for exercising a running
// narration-service: analyze a single page image or check service health.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Flag descriptions.
const (
	flagServerDesc = "Base URL of the narration-service"
	flagImageDesc  = "Path to a page image (jpeg/png/webp) to analyze"
	flagPageDesc   = "Zero-based page number of the image"
	flagHealthDesc = "Check service health and exit"
)

// Flag names and defaults.
const (
	flagServer        = "server"
	flagImage         = "image"
	flagPage          = "page"
	flagHealth        = "health"
	defaultServerURL  = "http://localhost:8080"
	requestTimeout    = 60 * time.Second
	errEitherRequired = "either --image or --health must be provided"
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	server string
	image  string
	page   int
	health bool
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if flags.health {
		return checkHealth(ctx, flags.server)
	}

	if flags.image == "" {
		return fmt.Errorf("%s", errEitherRequired)
	}

	return analyzeImage(ctx, flags)
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.server, flagServer, defaultServerURL, flagServerDesc)
	flag.StringVar(&flags.image, flagImage, "", flagImageDesc)
	flag.IntVar(&flags.page, flagPage, 0, flagPageDesc)
	flag.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)
	flag.Parse()

	return flags
}

func checkHealth(ctx context.Context, serverURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service is not healthy: %s", resp.Status)
	}

	fmt.Println("Service is healthy")

	return nil
}

func analyzeImage(ctx context.Context, flags appFlags) error {
	dataURL, err := encodeImageFile(flags.image)
	if err != nil {
		return err
	}

	requestBody, err := json.Marshal(map[string]any{
		"image":    dataURL,
		"page_num": flags.page,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		flags.server+"/api/analyze",
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return fmt.Errorf("failed to create analyze request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("analyze request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("analyze failed (%s): %s", resp.Status, string(body))
	}

	var pretty bytes.Buffer

	err = json.Indent(&pretty, body, "", "  ")
	if err != nil {
		fmt.Println(string(body))

		return nil
	}

	fmt.Println(pretty.String())

	return nil
}

// encodeImageFile reads an image file and wraps it in a data URL so the
// service can detect the media type.
func encodeImageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image file: %w", err)
	}

	mediaType := "image/jpeg"

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		mediaType = "image/png"
	case ".webp":
		mediaType = "image/webp"
	case ".gif":
		mediaType = "image/gif"
	}

	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
