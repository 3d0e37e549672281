package main

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const mermaidASCIIVersion = "1.1.0"

const mermaidASCIIReleaseURL = "https://github.com/AlexanderGrooff/mermaid-ascii/releases/download"

// SHA-256 checksums for mermaid-ascii v1.1.0 release assets.
var mermaidASCIIChecksums = map[string]string{
	"mermaid-ascii_Darwin_arm64.tar.gz":  "068d2ff869d4921655cab471500fffd8c3ed28155b100518ed3cf3835d53d3d0",
	"mermaid-ascii_Darwin_x86_64.tar.gz": "0cd4c9c01a03284fe866f39a1ce1aaee1e6a2fbd91deedc4ec254cb87622eec8",
	"mermaid-ascii_Linux_arm64.tar.gz":   "3b7d0a95141bfbca838e445ea802ffb7fba8873b3c4af498482c84f83526f2db",
	"mermaid-ascii_Linux_x86_64.tar.gz":  "838ea93d561b3bc83aa15531c6ed7d2d261a8edc521d5484f7e91fe831cc4c65",
}

// runInstall writes settings.json, fetches the optional mermaid-ascii
// renderer, and asks a running server to reload.
func runInstall(args []string) {
	base := loadConfig()
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	listenAddr := fs.String("listen-addr", base.ListenAddr, "panel listen address")
	logLevel := fs.String("log-level", base.LogLevel, "log level: debug, info, warn, error")
	provider := fs.String("provider", base.Provider, "suggestion provider: gemini, openai, ollama, offline")
	model := fs.String("model", base.Model, "provider model (default: provider's own)")
	endpoint := fs.String("endpoint", base.Endpoint, "provider endpoint override")
	timeout := fs.String("timeout", base.Timeout, "provider call timeout")
	skipTools := fs.Bool("skip-tools", false, "do not download mermaid-ascii")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	dir := scrapegenDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		fatalf("cannot create %s: %v", dir, err)
	}

	cfg := Config{
		ListenAddr: *listenAddr,
		LogLevel:   *logLevel,
		Provider:   *provider,
		Model:      *model,
		Endpoint:   *endpoint,
		Timeout:    *timeout,
	}
	path := settingsPath()
	if err := writeSettings(path, cfg); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Settings written to %s\n", path)

	if !*skipTools {
		client := &http.Client{Timeout: 60 * time.Second}
		dest, err := installMermaidASCII(binDir(), mermaidASCIIReleaseURL, client)
		switch {
		case errors.Is(err, errAlreadyInstalled):
			fmt.Printf("mermaid-ascii already installed at %s\n", dest)
		case err != nil:
			fmt.Fprintf(os.Stderr, "Warning: %v; ASCII diagrams will use the built-in renderer\n", err)
		default:
			fmt.Printf("mermaid-ascii installed to %s\n", dest)
		}
	}

	if !signalRunningServer() {
		fmt.Println("Run `scrapegen serve` to start the configurator panel.")
	}
}

func writeSettings(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// signalRunningServer sends SIGHUP to a running scrapegen server (via pidfile).
// Returns true if the server was signaled.
func signalRunningServer() bool {
	data, err := os.ReadFile(pidPath())
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Check if process is alive.
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return false
	}
	if err := proc.Signal(syscall.SIGHUP); err != nil {
		return false
	}
	fmt.Printf("Signaled running server (PID %d) to reload settings\n", pid)
	return true
}

var errAlreadyInstalled = errors.New("already installed")

// installMermaidASCII downloads the mermaid-ascii release for this platform
// from releaseURL into binDir and returns the binary path.
func installMermaidASCII(binDir, releaseURL string, client httpGetter) (string, error) {
	destPath := filepath.Join(binDir, "mermaid-ascii")
	if _, err := os.Stat(destPath); err == nil {
		return destPath, errAlreadyInstalled
	}

	assetName, err := mermaidASCIIAssetName(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return "", err
	}
	expected, ok := mermaidASCIIChecksums[assetName]
	if !ok {
		return "", fmt.Errorf("mermaid-ascii: no known checksum for %s", assetName)
	}

	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", binDir, err)
	}

	url := fmt.Sprintf("%s/%s/%s", releaseURL, mermaidASCIIVersion, assetName)
	tmpPath, err := downloadToTempFile(url, binDir, client)
	if err != nil {
		return "", fmt.Errorf("mermaid-ascii: download failed: %w", err)
	}
	defer os.Remove(tmpPath)

	if err := verifyFile(tmpPath, expected); err != nil {
		return "", fmt.Errorf("mermaid-ascii: %s: %w", assetName, err)
	}

	f, err := os.Open(tmpPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := extractTarGz(f, binDir, "mermaid-ascii"); err != nil {
		_ = os.Remove(destPath)
		return "", fmt.Errorf("mermaid-ascii: extraction failed: %w", err)
	}
	if err := os.Chmod(destPath, 0o755); err != nil {
		return "", err
	}
	return destPath, nil
}

// mermaidASCIIAssetName returns the GitHub release asset name for a platform.
func mermaidASCIIAssetName(goos, goarch string) (string, error) {
	osName := ""
	switch goos {
	case "darwin":
		osName = "Darwin"
	case "linux":
		osName = "Linux"
	default:
		return "", fmt.Errorf("mermaid-ascii: unsupported OS %q", goos)
	}

	archName := ""
	switch goarch {
	case "amd64":
		archName = "x86_64"
	case "arm64":
		archName = "arm64"
	default:
		return "", fmt.Errorf("mermaid-ascii: unsupported architecture %q", goarch)
	}

	return fmt.Sprintf("mermaid-ascii_%s_%s.tar.gz", osName, archName), nil
}

// extractTarGz extracts a specific file from a tar.gz archive into destDir.
func extractTarGz(r io.Reader, destDir, targetName string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return fmt.Errorf("file %q not found in archive", targetName)
		}
		if err != nil {
			return fmt.Errorf("tar: %w", err)
		}

		// Archives may nest the binary under a directory.
		if filepath.Base(hdr.Name) != targetName || hdr.Typeflag != tar.TypeReg {
			continue
		}

		destPath := filepath.Join(destDir, targetName)
		f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
		if err != nil {
			return fmt.Errorf("create %s: %w", destPath, err)
		}
		if _, err := io.Copy(f, tr); err != nil { //nolint:gosec // bounded by tar header size
			f.Close()
			return fmt.Errorf("write %s: %w", destPath, err)
		}
		return f.Close()
	}
}
