package main

import (
	"crypto/tls"
	"crypto/x509"
	"flag"
	"os"
	"runtime"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
	"github.com/work6189/PoPlayers/config"
)

var addr = flag.String("addr", "localhost:7081", "internal http service address")
var ext = flag.String("ext", "localhost:7081", "external http service address")
var ntpServer = flag.String("ntp", "pool.ntp.org", "ntp server address")
var numWorker = flag.Int("workers", runtime.NumCPU(), "number of workers")
var debug = flag.Bool("debug", false, "debug mode")
var webFolder = flag.String("web", "", "web folder to serve the pages from")
var configPath = flag.String("config", "", "path to config file")

type TLSConfig struct {
	Cert     string `toml:"cert"`
	Key      string `toml:"key"`
	ClientCA string `toml:"client_ca"`
}

type ProxyConfig struct {
	LocalAddr     string           `toml:"localaddr"`
	ExternalAddr  string           `toml:"externaladdr"`
	NTP           string           `toml:"ntp"`
	NumWorkers    int              `toml:"num_workers"`
	Debug         bool             `toml:"debug"`
	AllowInsecure bool             `toml:"allow_insecure"`
	WebFolder     string           `toml:"web_folder"`
	TLS           TLSConfig        `toml:"tls"`
	Log           config.LogConfig `toml:"log"`
}

func loadConfig() (*ProxyConfig, error) {
	flag.Parse()
	cfg := &ProxyConfig{}
	// fill the default values
	if _, err := toml.Decode(string(config.ProxyToml), cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load default config")
	}
	if *configPath != "" {
		// enhance with the external file
		if _, err := toml.DecodeFile(*configPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to load config from %s", *configPath)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "web":
			cfg.WebFolder = *webFolder
		case "debug":
			cfg.Debug = *debug
		case "workers":
			cfg.NumWorkers = *numWorker
		case "ntp":
			cfg.NTP = *ntpServer
		case "addr":
			cfg.LocalAddr = *addr
		case "ext":
			cfg.ExternalAddr = *ext
		}
	})
	if cfg.NumWorkers < 1 {
		cfg.NumWorkers = runtime.NumCPU()
	}
	return cfg, nil
}

// serverTLS returns nil if no certificate is configured. Client certificates
// are verified against ClientCA if given.
func (c TLSConfig) serverTLS() (*tls.Config, error) {
	if c.Cert == "" {
		return nil, nil
	}
	cert, err := tls.LoadX509KeyPair(c.Cert, c.Key)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load certificate %s", c.Cert)
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if c.ClientCA != "" {
		pem, err := os.ReadFile(c.ClientCA)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read client ca %s", c.ClientCA)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.Errorf("no certificates in %s", c.ClientCA)
		}
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.VerifyClientCertIfGiven
	}
	return tlsConfig, nil
}
