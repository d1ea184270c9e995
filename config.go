package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const defaultConfigPath = "conf/config.json"

type Config struct {
	// Provider selects the upstream backend: unsplash, pexels or pixabay.
	Provider string `json:"provider"`
	Pexels   struct {
		Key string `json:"key"`
	} `json:"pexels.com"`
	Unsplash struct {
		AccessKey string `json:"access"`
	} `json:"unsplash.com"`
	Pixabay struct {
		Key string `json:"key"`
	} `json:"pixabay.com"`
	Server struct {
		Listen           string `json:"listen"`
		RenderWaitMillis int    `json:"renderWaitMillis"`
		SessionTTLHours  int    `json:"sessionTtlHours"`
	} `json:"server"`
	Cache struct {
		Entries           int `json:"entries"`
		TTLMinutes        int `json:"ttlMinutes"`
		RequestTTLSeconds int `json:"requestTtlSeconds"`
	} `json:"cache"`
	Pagination struct {
		StopAtLastPage bool `json:"stopAtLastPage"`
	} `json:"pagination"`
}

func defaultConfig() *Config {
	cfg := &Config{Provider: "unsplash"}
	cfg.Server.Listen = ":8081"
	cfg.Server.RenderWaitMillis = 2000
	cfg.Server.SessionTTLHours = 24
	cfg.Cache.Entries = 256
	cfg.Cache.TTLMinutes = 60
	cfg.Cache.RequestTTLSeconds = 86400
	return cfg
}

// LoadConfig reads path over the defaults, then applies the environment.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	// .env is optional, the process environment wins over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		defer f.Close()
		if err := decodeConfig(f, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func decodeConfig(f io.ReadSeeker, cfg *Config) error {
	decoder := json.NewDecoder(f)
	err := decoder.Decode(cfg)
	var syntaxErr *json.SyntaxError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &syntaxErr):
		f.Seek(0, io.SeekStart)
		pos := findPos(bufio.NewReader(f), int(syntaxErr.Offset))
		return fmt.Errorf("unable to decode configuration file (Line: %d, Pos: %d); - %w", pos.line, pos.pos, err)
	default:
		return fmt.Errorf("unable to decode configuration file: %w", err)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("UNSPLASH_ACCESS_KEY"); v != "" {
		cfg.Unsplash.AccessKey = v
	}
	if v := os.Getenv("PEXELS_API_KEY"); v != "" {
		cfg.Pexels.Key = v
	}
	if v := os.Getenv("PIXABAY_API_KEY"); v != "" {
		cfg.Pixabay.Key = v
	}
	if v := os.Getenv("PHOTOGALLERY_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("PHOTOGALLERY_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
}

type FilePos struct {
	line int
	pos  int
}

func findPos(file *bufio.Reader, offset int) FilePos {
	p := FilePos{line: 1, pos: offset}
	var lineLen int
	for line, err := file.ReadBytes('\n'); len(line) > 0 && err == nil; line, err = file.ReadBytes('\n') {
		if p.pos < len(line) {
			return p
		}
		lineLen += len(line)
		if line[len(line)-1] == '\n' {
			p.line += 1
			p.pos -= lineLen
			lineLen = 0
		}
	}
	return p
}
