// Package config loads birdctl's ini file.
//
//	[bird]
//	socket = /run/bird/bird.ctl
//	dial_timeout = 5s
//	command_timeout = 30s
//
//	[log]
//	level = info
//	file = /var/log/birdctl.log
//	format = text
//
//	[serve]
//	metrics_listen = :9324
//	grpc_listen = :7181
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mellowdrifter/birdctl/client"
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// Config is the whole file. Keys that are missing keep their defaults.
type Config struct {
	Bird  Bird
	Log   Log
	Serve Serve
}

type Bird struct {
	Socket         string
	DialTimeout    time.Duration
	CommandTimeout time.Duration
}

type Log struct {
	Level  string
	File   string
	Format string
}

type Serve struct {
	MetricsListen string
	GRPCListen    string
}

// Default is used for anything the file leaves out.
func Default() Config {
	return Config{
		Bird: Bird{
			Socket:         client.DefaultSocketPath,
			DialTimeout:    client.DefaultDialTimeout,
			CommandTimeout: 30 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Serve: Serve{
			MetricsListen: ":9324",
			GRPCListen:    ":7181",
		},
	}
}

// Load reads path. A file that does not exist yields the defaults.
func Load(path string) (Config, error) {
	d := Default()
	if path == "" {
		return d, nil
	}
	cf, err := ini.LooseLoad(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	bird := cf.Section("bird")
	lg := cf.Section("log")
	serve := cf.Section("serve")
	c := Config{
		Bird: Bird{
			Socket:         bird.Key("socket").MustString(d.Bird.Socket),
			DialTimeout:    bird.Key("dial_timeout").MustDuration(d.Bird.DialTimeout),
			CommandTimeout: bird.Key("command_timeout").MustDuration(d.Bird.CommandTimeout),
		},
		Log: Log{
			Level:  lg.Key("level").MustString(d.Log.Level),
			File:   lg.Key("file").MustString(d.Log.File),
			Format: lg.Key("format").In(d.Log.Format, []string{"text", "json"}),
		},
		Serve: Serve{
			MetricsListen: serve.Key("metrics_listen").MustString(d.Serve.MetricsListen),
			GRPCListen:    serve.Key("grpc_listen").MustString(d.Serve.GRPCListen),
		},
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Options turns the bird section into client options.
func (b Bird) Options(logger *log.Entry) client.Options {
	return client.Options{
		SocketPath:     b.Socket,
		DialTimeout:    b.DialTimeout,
		CommandTimeout: b.CommandTimeout,
		Logger:         logger,
	}
}

// Apply sets up logger from the log section. When a file is configured the
// returned closer must be closed on exit.
func (l Log) Apply(logger *log.Logger) (io.Closer, error) {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	if l.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	if l.File == "" {
		return nopCloser{}, nil
	}
	f, err := os.OpenFile(l.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open logfile: %w", err)
	}
	logger.SetOutput(f)
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
