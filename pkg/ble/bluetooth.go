package ble

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// Advertised name prefixes of VanMoof bikes. S5/A5 advertise SVTB
// followed by the frame number; older firmware advertises VANMOOF.
var bikeNamePrefixes = []string{"SVTB", "VANMOOF"}

var (
	serviceUUID        = mustUUID(ServiceUUID)
	characteristicUUID = mustUUID(CharacteristicUUID)
)

func mustUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(fmt.Sprintf("ble: invalid UUID %q: %v", s, err))
	}
	return u
}

// BluetoothConnector establishes links over the host's BLE adapter.
type BluetoothConnector struct {
	adapter *bluetooth.Adapter

	enableOnce sync.Once
	enableErr  error
}

// NewBluetoothConnector creates a connector over the default adapter.
func NewBluetoothConnector() *BluetoothConnector {
	return &BluetoothConnector{adapter: bluetooth.DefaultAdapter}
}

// enable powers the adapter once; subsequent calls return the cached
// result.
func (c *BluetoothConnector) enable() error {
	c.enableOnce.Do(func() {
		c.enableErr = c.adapter.Enable()
	})
	if c.enableErr != nil {
		return fmt.Errorf("failed to enable BLE adapter: %w", c.enableErr)
	}
	return nil
}

// Connect scans for the bike with the given MAC address, connects and
// subscribes to the frame characteristic. The context bounds the scan
// and connect; it does not bound the life of the returned link.
func (c *BluetoothConnector) Connect(ctx context.Context, address string) (Link, error) {
	if err := c.enable(); err != nil {
		return nil, err
	}

	result, err := c.findDevice(ctx, func(r bluetooth.ScanResult) bool {
		return strings.EqualFold(r.Address.String(), address)
	})
	if err != nil {
		return nil, err
	}

	device, err := c.adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	char, err := findFrameCharacteristic(device)
	if err != nil {
		_ = device.Disconnect()
		return nil, err
	}

	link := &bluetoothLink{
		device: device,
		char:   char,
		frames: make(chan []byte, frameBufferSize),
		done:   make(chan struct{}),
	}

	err = char.EnableNotifications(func(buf []byte) {
		cp := make([]byte, len(buf))
		copy(cp, buf)
		select {
		case link.frames <- cp:
		default:
			// Consumer stalled; dropping beats blocking the BLE stack.
		}
	})
	if err != nil {
		_ = device.Disconnect()
		return nil, fmt.Errorf("failed to subscribe to frame characteristic: %w", err)
	}

	return link, nil
}

// DiscoveredBike is one advertising bike seen during a scan.
type DiscoveredBike struct {
	Name    string
	Address string
}

// ScanForBikes scans for the given duration and returns every bike seen,
// deduplicated by address.
func (c *BluetoothConnector) ScanForBikes(ctx context.Context, duration time.Duration) ([]DiscoveredBike, error) {
	if err := c.enable(); err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		seen  = make(map[string]bool)
		bikes []DiscoveredBike
	)

	scanErr := make(chan error, 1)
	go func() {
		scanErr <- c.adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
			if !isBikeAdvertisement(r) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			addr := r.Address.String()
			if !seen[addr] {
				seen[addr] = true
				bikes = append(bikes, DiscoveredBike{Name: r.LocalName(), Address: addr})
			}
		})
	}()

	select {
	case <-time.After(duration):
	case <-ctx.Done():
	}
	_ = c.adapter.StopScan()
	if err := <-scanErr; err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	return bikes, nil
}

// findDevice scans until a result matches or the context expires.
func (c *BluetoothConnector) findDevice(ctx context.Context, match func(bluetooth.ScanResult) bool) (bluetooth.ScanResult, error) {
	found := make(chan bluetooth.ScanResult, 1)
	scanErr := make(chan error, 1)

	go func() {
		scanErr <- c.adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
			if match(r) {
				select {
				case found <- r:
				default:
				}
				_ = a.StopScan()
			}
		})
	}()

	select {
	case r := <-found:
		<-scanErr
		return r, nil

	case err := <-scanErr:
		if err != nil {
			return bluetooth.ScanResult{}, fmt.Errorf("scan failed: %w", err)
		}
		// Scan may have stopped right after a match landed.
		select {
		case r := <-found:
			return r, nil
		default:
			return bluetooth.ScanResult{}, ErrDeviceNotFound
		}

	case <-ctx.Done():
		_ = c.adapter.StopScan()
		<-scanErr
		return bluetooth.ScanResult{}, fmt.Errorf("%w: %v", ErrDeviceNotFound, ctx.Err())
	}
}

func isBikeAdvertisement(r bluetooth.ScanResult) bool {
	name := r.LocalName()
	for _, prefix := range bikeNamePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return r.HasServiceUUID(serviceUUID)
}

// findFrameCharacteristic walks the device's services for the frame
// characteristic. Services are discovered unfiltered: some firmware
// revisions group the characteristic under a different service UUID.
func findFrameCharacteristic(device bluetooth.Device) (bluetooth.DeviceCharacteristic, error) {
	services, err := device.DiscoverServices(nil)
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("service discovery failed: %w", err)
	}

	for _, service := range services {
		chars, err := service.DiscoverCharacteristics(nil)
		if err != nil {
			continue
		}
		for _, char := range chars {
			if char.UUID() == characteristicUUID {
				return char, nil
			}
		}
	}
	return bluetooth.DeviceCharacteristic{}, ErrCharacteristicNotFound
}

// bluetoothLink is a Link over one connected GATT characteristic.
type bluetoothLink struct {
	device bluetooth.Device
	char   bluetooth.DeviceCharacteristic
	frames chan []byte

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func (l *bluetoothLink) Send(frame []byte) error {
	select {
	case <-l.done:
		return ErrLinkClosed
	default:
	}
	if _, err := l.char.WriteWithoutResponse(frame); err != nil {
		return fmt.Errorf("frame write failed: %w", err)
	}
	return nil
}

func (l *bluetoothLink) Frames() <-chan []byte {
	return l.frames
}

func (l *bluetoothLink) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
		l.closeErr = l.device.Disconnect()
	})
	return l.closeErr
}
