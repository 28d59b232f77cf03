package client

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmoof/moof-go/internal/bikesim"
	"github.com/openmoof/moof-go/pkg/auth"
	"github.com/openmoof/moof-go/pkg/ble"
	"github.com/openmoof/moof-go/pkg/cert"
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

// startSim runs a simulated bike and returns a connector that hands out
// the client side of its pipe.
func startSim(t *testing.T, opts ...bikesim.Option) (ble.Connector, *bikesim.Bike) {
	t.Helper()

	clientLink, bikeLink := ble.Pipe()
	t.Cleanup(func() { clientLink.Close() })

	bike := bikesim.New(bikeLink, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go bike.Run(ctx)

	connector := ble.ConnectorFunc(func(context.Context, string) (ble.Link, error) {
		return clientLink, nil
	})
	return connector, bike
}

func newTestClient(t *testing.T, connector ble.Connector) *Client {
	t.Helper()

	c, err := New(Config{
		Address:     "AA:BB:CC:DD:EE:FF",
		Credentials: testCredentials(t),
		Connector:   connector,
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientAuthenticateAndCommand(t *testing.T) {
	connector, bike := startSim(t)
	c := newTestClient(t, connector)

	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Authenticate(ctx))
	assert.True(t, c.Authenticated())
	assert.Equal(t, auth.PhaseAuthenticated, c.Phase())

	require.NoError(t, c.Unlock())
	assert.Eventually(t, func() bool { return !bike.Locked() },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.SetPowerLevel(4))
	assert.Eventually(t, func() bool { return bike.PowerLevel() == 4 },
		2*time.Second, 10*time.Millisecond)
}

func TestClientAuthenticationRejected(t *testing.T) {
	connector, _ := startSim(t, bikesim.WithRejectAuth())
	c := newTestClient(t, connector)

	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))

	err := c.Authenticate(ctx)
	assert.ErrorIs(t, err, auth.ErrAuthenticationRejected)
	assert.False(t, c.Authenticated())
}

func TestClientHandshakeTimeout(t *testing.T) {
	// A link with no bike behind it stays silent.
	silent, other := ble.Pipe()
	defer other.Close()

	c, err := New(Config{
		Address:     "AA:BB:CC:DD:EE:FF",
		Credentials: testCredentials(t),
		Connector: ble.ConnectorFunc(func(context.Context, string) (ble.Link, error) {
			return silent, nil
		}),
		HandshakeTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Connect(context.Background()))
	err = c.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrHandshakeTimeout)
	assert.Equal(t, auth.PhaseFailed, c.Phase())
}

func TestClientCommandBeforeAuthenticate(t *testing.T) {
	connector, _ := startSim(t)
	c := newTestClient(t, connector)

	assert.ErrorIs(t, c.Unlock(), ErrNotConnected)

	require.NoError(t, c.Connect(context.Background()))
	assert.ErrorIs(t, c.Unlock(), ErrNotConnected)
}

func TestClientConnectFailure(t *testing.T) {
	connectErr := errors.New("adapter unavailable")
	calls := 0
	c, err := New(Config{
		Address:     "AA:BB:CC:DD:EE:FF",
		Credentials: testCredentials(t),
		Connector: ble.ConnectorFunc(func(context.Context, string) (ble.Link, error) {
			calls++
			return nil, connectErr
		}),
		ConnectAttempts: 1,
	})
	require.NoError(t, err)

	err = c.Connect(context.Background())
	assert.ErrorIs(t, err, connectErr)
	assert.Equal(t, 1, calls)
}

func TestClientConnectTwice(t *testing.T) {
	connector, _ := startSim(t)
	c := newTestClient(t, connector)

	require.NoError(t, c.Connect(context.Background()))
	assert.ErrorIs(t, c.Connect(context.Background()), ErrAlreadyConnected)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Credentials: testCredentials(t)})
	assert.Error(t, err, "connector required")

	_, err = New(Config{
		Connector: ble.ConnectorFunc(func(context.Context, string) (ble.Link, error) {
			return nil, nil
		}),
	})
	assert.Error(t, err, "credentials required")
}
