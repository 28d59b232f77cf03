package moof_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmoof/moof-go/internal/bikesim"
	"github.com/openmoof/moof-go/pkg/auth"
	"github.com/openmoof/moof-go/pkg/ble"
	"github.com/openmoof/moof-go/pkg/cert"
	"github.com/openmoof/moof-go/pkg/client"
	"github.com/openmoof/moof-go/pkg/command"
	"github.com/openmoof/moof-go/pkg/wire"
)

var testSeed = bytes.Repeat([]byte{0x42}, ed25519.SeedSize)

func testCredentials(t *testing.T) *cert.Credentials {
	t.Helper()

	key := ed25519.NewKeyFromSeed(testSeed)
	payload, err := cbor.Marshal(map[string]any{
		"i": uint64(1),
		"f": "ASY4F09999",
		"s": "ASY4F09999",
		"e": uint64(1893456000),
		"r": uint64(7),
		"u": bytes.Repeat([]byte{0x01}, cert.UserIDSize),
		"p": []byte(key.Public().(ed25519.PublicKey)),
	})
	require.NoError(t, err)

	c, err := cert.Parse(append(bytes.Repeat([]byte{0x5A}, cert.CASignatureSize), payload...))
	require.NoError(t, err)
	return &cert.Credentials{PrivateKey: key, Certificate: c}
}

func startBike(t *testing.T, opts ...bikesim.Option) (ble.Connector, *bikesim.Bike) {
	t.Helper()

	clientLink, bikeLink := ble.Pipe()
	t.Cleanup(func() { clientLink.Close() })

	bike := bikesim.New(bikeLink, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go bike.Run(ctx)

	return ble.ConnectorFunc(func(context.Context, string) (ble.Link, error) {
		return clientLink, nil
	}), bike
}

// TestE2E_UnlockRide walks the full stack: connect, authenticate, ride.
func TestE2E_UnlockRide(t *testing.T) {
	connector, bike := startBike(t)

	c, err := client.New(client.Config{
		Address:     "AA:BB:CC:DD:EE:FF",
		Credentials: testCredentials(t),
		Connector:   connector,
	})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Authenticate(ctx))
	require.True(t, c.Authenticated())

	require.NoError(t, c.Unlock())
	require.NoError(t, c.DisarmAlarm())
	require.NoError(t, c.SetPowerLevel(3))
	require.NoError(t, c.SetLightMode(command.LightAuto))

	assert.Eventually(t, func() bool {
		return !bike.Locked() && !bike.Armed() &&
			bike.PowerLevel() == 3 && bike.LightMode() == 0x03
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, bike.Commands(), 4)
}

// TestE2E_SecondaryHeader exercises a bike that pins header 0x82.
func TestE2E_SecondaryHeader(t *testing.T) {
	connector, bike := startBike(t, bikesim.WithHeader(wire.HeaderS5Secondary))

	c, err := client.New(client.Config{
		Address:     "AA:BB:CC:DD:EE:FF",
		Credentials: testCredentials(t),
		Connector:   connector,
	})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Authenticate(ctx))

	require.NoError(t, c.Lock())
	assert.Eventually(t, func() bool {
		cmds := bike.Commands()
		return len(cmds) == 1 && cmds[0][0] == wire.HeaderS5Secondary
	}, 2*time.Second, 10*time.Millisecond)
}

// TestE2E_RejectedKey verifies a foreign key is denied end to end.
func TestE2E_RejectedKey(t *testing.T) {
	connector, bike := startBike(t)

	creds := testCredentials(t)
	creds.PrivateKey = ed25519.NewKeyFromSeed(bytes.Repeat([]byte{0x13}, ed25519.SeedSize))

	c, err := client.New(client.Config{
		Address:     "AA:BB:CC:DD:EE:FF",
		Credentials: creds,
		Connector:   connector,
	})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))

	err = c.Authenticate(ctx)
	assert.ErrorIs(t, err, auth.ErrAuthenticationRejected)
	assert.False(t, bike.Authenticated())
	assert.ErrorIs(t, c.Unlock(), auth.ErrNotAuthenticated)
}
