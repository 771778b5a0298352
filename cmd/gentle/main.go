package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/gentle/internal/config"
	"github.com/ayusman/gentle/internal/server"
	"github.com/ayusman/gentle/internal/sketch"
	"github.com/ayusman/gentle/internal/store"
	"github.com/ayusman/gentle/internal/tray"
)

// The drawing window must stay on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the TOML config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: gentle [-config file] [image ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	fmt.Println("gentle - gesture particle sketch")

	if err := run(*configPath, flag.Args()); err != nil {
		log.Fatalf("gentle: %v", err)
	}
}

func run(configPath string, images []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if len(images) > 0 {
		cfg.Images = images
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	sk, err := sketch.New(cfg, st)
	if err != nil {
		return err
	}
	defer sk.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ServerAddr != "" {
		webDir := findWebDir(cfg.DataDir)
		if webDir != "" {
			fmt.Printf("Serving static files from: %s\n", webDir)
		}

		srv := server.New(server.Config{
			StaticDir: webDir,
			Store:     st,
			Source:    sk,
		})
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.ServerAddr); err != nil {
				log.Printf("Server failed: %v", err)
			}
		}()
	}

	if cfg.Tray {
		t := tray.New()
		t.OnPause(sk.SetPaused)
		t.OnSnapshot(sk.RequestSnapshot)
		t.OnQuit(stop)
		t.Register()
		defer t.Quit()

		go t.Follow(ctx, func() bool { return sk.State().Grip })
	}

	return sk.Run(ctx)
}

func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "gentle.toml"
	}
	return filepath.Join(homeDir, ".gentle", "gentle.toml")
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
