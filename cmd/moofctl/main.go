// Command moofctl connects to a VanMoof S5/A5, authenticates with rider
// credentials and drives the bike from an interactive prompt.
//
// Usage:
//
//	moofctl [flags]
//
// Flags:
//
//	-credentials string  Credentials YAML file (privateKey, certificate, bikeAddress)
//	-key string          Base64 Ed25519 private key (overrides the file)
//	-cert string         Base64 certificate blob (overrides the file)
//	-address string      Bike MAC address (overrides the file)
//	-scan                Scan for advertising bikes and exit
//	-scan-timeout        Scan duration (default 10s)
//	-sim                 Run against an in-process simulated bike
//	-log-level string    Log level: debug, info, warn, error (default "info")
//	-log-file string     Append a CBOR protocol capture to this file
//	-timeout duration    Connect and handshake timeout (default 30s)
//	-version             Print version and exit
//
// Examples:
//
//	# Find nearby bikes
//	moofctl -scan
//
//	# Connect with exported credentials
//	moofctl -credentials ~/.moof/credentials.yaml
//
//	# Try the command surface without a bike
//	moofctl -sim -log-level debug
//
// Interactive Commands:
//
//	unlock / lock      - Unlock or lock the bike
//	arm / disarm       - Arm or disarm the alarm
//	alarm              - Trigger the alarm
//	bell / bell2       - Ring the bell once or twice
//	horn               - Sound the horn
//	sound <1|2>        - Play a built-in sound
//	power <0-4>        - Set the assistance level
//	poweron / poweroff - Motor support on or off
//	booston / boostoff - Boost on or off
//	lights <off|on|auto> - Set the light mode
//	status             - Show session status
//	quit               - Exit
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/openmoof/moof-go/cmd/moofctl/interactive"
	"github.com/openmoof/moof-go/internal/bikesim"
	"github.com/openmoof/moof-go/internal/version"
	"github.com/openmoof/moof-go/pkg/ble"
	"github.com/openmoof/moof-go/pkg/cert"
	"github.com/openmoof/moof-go/pkg/client"
	"github.com/openmoof/moof-go/pkg/log"
)

// Config holds the CLI configuration.
type Config struct {
	CredentialsFile string
	Key             string
	Cert            string
	Address         string
	Scan            bool
	ScanTimeout     time.Duration
	Sim             bool
	LogLevel        string
	LogFile         string
	Timeout         time.Duration
	Version         bool
}

var config Config

func init() {
	flag.StringVar(&config.CredentialsFile, "credentials", "", "Credentials YAML file")
	flag.StringVar(&config.Key, "key", "", "Base64 Ed25519 private key (overrides the file)")
	flag.StringVar(&config.Cert, "cert", "", "Base64 certificate blob (overrides the file)")
	flag.StringVar(&config.Address, "address", "", "Bike MAC address (overrides the file)")
	flag.BoolVar(&config.Scan, "scan", false, "Scan for advertising bikes and exit")
	flag.DurationVar(&config.ScanTimeout, "scan-timeout", 10*time.Second, "Scan duration")
	flag.BoolVar(&config.Sim, "sim", false, "Run against an in-process simulated bike")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&config.LogFile, "log-file", "", "Append a CBOR protocol capture to this file")
	flag.DurationVar(&config.Timeout, "timeout", 30*time.Second, "Connect and handshake timeout")
	flag.BoolVar(&config.Version, "version", false, "Print version and exit")
}

func main() {
	flag.Parse()

	if config.Version {
		fmt.Println(version.UserAgent("moofctl"))
		return
	}

	slogger := setupLogging(config.LogLevel)

	if config.Scan {
		if err := runScan(); err != nil {
			stdlog.Fatalf("Scan failed: %v", err)
		}
		return
	}

	creds, err := loadCredentials()
	if err != nil {
		stdlog.Fatalf("Failed to load credentials: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connector, address := buildConnector(ctx)

	var protoLogger log.Logger = log.NewSlogAdapter(slogger)
	if config.LogFile != "" {
		fl, err := log.NewFileLogger(config.LogFile)
		if err != nil {
			stdlog.Fatalf("Failed to open capture file: %v", err)
		}
		defer fl.Close()
		protoLogger = log.NewMultiLogger(protoLogger, fl)
		stdlog.Printf("Capturing protocol events to %s", config.LogFile)
	}

	c, err := client.New(client.Config{
		Address:          address,
		Credentials:      creds,
		Connector:        connector,
		Logger:           protoLogger,
		HandshakeTimeout: config.Timeout,
	})
	if err != nil {
		stdlog.Fatalf("Failed to create client: %v", err)
	}
	defer c.Close()

	stdlog.Printf("Connecting to %s...", address)
	connectCtx, connectCancel := context.WithTimeout(ctx, config.Timeout)
	err = c.Connect(connectCtx)
	connectCancel()
	if err != nil {
		stdlog.Fatalf("Failed to connect: %v", err)
	}

	stdlog.Println("Authenticating...")
	if err := c.Authenticate(ctx); err != nil {
		stdlog.Fatalf("Authentication failed: %v", err)
	}
	stdlog.Println("Authenticated.")

	ic, err := interactive.New(c)
	if err != nil {
		stdlog.Fatalf("Failed to start interactive mode: %v", err)
	}
	// Route log output through readline so it does not clobber the prompt.
	stdlog.SetOutput(ic.Stdout())
	go ic.Run(ctx, cancel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		stdlog.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	stdlog.Println("Disconnecting...")
}

// setupLogging configures slog and returns the root logger.
func setupLogging(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		stdlog.Fatalf("Invalid log level: %s", level)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// loadCredentials resolves credentials from the file and flag overrides.
func loadCredentials() (*cert.Credentials, error) {
	key, certBlob := config.Key, config.Cert

	if config.CredentialsFile != "" {
		f, err := cert.ReadCredentialsFile(config.CredentialsFile)
		if err != nil {
			return nil, err
		}
		if key == "" {
			key = f.PrivateKey
		}
		if certBlob == "" {
			certBlob = f.Certificate
		}
		if config.Address == "" {
			config.Address = f.BikeAddress
		}
	}

	if key == "" || certBlob == "" {
		if config.Sim {
			// The simulated bike trusts whatever certificate it is shown,
			// so a throwaway identity is enough.
			return ephemeralCredentials()
		}
		return nil, fmt.Errorf("no credentials: pass -credentials or both -key and -cert")
	}
	return cert.LoadCredentials(key, certBlob)
}

// ephemeralCredentials generates a throwaway key and certificate for
// -sim mode.
func ephemeralCredentials() (*cert.Credentials, error) {
	pub, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	userID := make([]byte, cert.UserIDSize)
	if _, err := rand.Read(userID); err != nil {
		return nil, err
	}

	payload, err := cbor.Marshal(map[string]any{
		"i": uint64(1),
		"f": "SIMULATED",
		"s": "SIMULATED",
		"e": uint64(time.Now().Add(24 * time.Hour).Unix()),
		"r": uint64(7),
		"u": userID,
		"p": []byte(pub),
	})
	if err != nil {
		return nil, err
	}

	certificate, err := cert.Parse(append(make([]byte, cert.CASignatureSize), payload...))
	if err != nil {
		return nil, err
	}
	return &cert.Credentials{PrivateKey: key, Certificate: certificate}, nil
}

// buildConnector returns the transport: the host BLE adapter, or a pipe
// to an in-process simulated bike in -sim mode.
func buildConnector(ctx context.Context) (ble.Connector, string) {
	if !config.Sim {
		return ble.NewBluetoothConnector(), config.Address
	}

	clientLink, bikeLink := ble.Pipe()
	bike := bikesim.New(bikeLink)
	go func() {
		if err := bike.Run(ctx); err != nil && ctx.Err() == nil {
			stdlog.Printf("Simulated bike stopped: %v", err)
		}
	}()

	connector := ble.ConnectorFunc(func(context.Context, string) (ble.Link, error) {
		return clientLink, nil
	})
	return connector, "simulated"
}

// runScan lists advertising bikes.
func runScan() error {
	connector := ble.NewBluetoothConnector()

	stdlog.Printf("Scanning for %s...", config.ScanTimeout)
	bikes, err := connector.ScanForBikes(context.Background(), config.ScanTimeout)
	if err != nil {
		return err
	}

	if len(bikes) == 0 {
		fmt.Println("No bikes found.")
		return nil
	}
	for _, b := range bikes {
		fmt.Printf("%s  %s\n", b.Address, b.Name)
	}
	return nil
}
