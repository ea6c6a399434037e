package printer

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"
)

// Device types accepted by NewDevice.
const (
	TypeUSB     = "usb"
	TypeNetwork = "network"
	TypeNone    = "none"
	TypeConsole = "console"
)

// Device sends a rendered ESC/POS stream to hardware.
type Device interface {
	Send(ctx context.Context, data []byte) error
	Ready(ctx context.Context) bool
}

// DeviceConfig selects and addresses a device.
type DeviceConfig struct {
	Type    string
	USBPath string
	Address string
}

// NewDevice builds the device named by cfg.Type. The console device writes to
// console, which is usually stdout.
func NewDevice(cfg DeviceConfig, console io.Writer) (Device, error) {
	switch cfg.Type {
	case TypeUSB:
		if cfg.USBPath == "" {
			return nil, fmt.Errorf("printer: usb device path is required")
		}
		return &usbDevice{path: cfg.USBPath}, nil
	case TypeNetwork:
		if cfg.Address == "" {
			return nil, fmt.Errorf("printer: network address is required")
		}
		return &networkDevice{address: cfg.Address, dialTimeout: 5 * time.Second, writeTimeout: 10 * time.Second}, nil
	case TypeConsole:
		return NewWriterDevice(console), nil
	case TypeNone, "":
		return nullDevice{}, nil
	default:
		return nil, fmt.Errorf("printer: unknown device type %q", cfg.Type)
	}
}

// usbDevice opens the device file for each job, e.g. /dev/usb/lp0.
type usbDevice struct {
	path string
}

func (d *usbDevice) Send(_ context.Context, data []byte) error {
	f, err := os.OpenFile(d.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("printer: open %s: %w", d.path, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("printer: write %s: %w", d.path, err)
	}
	return nil
}

func (d *usbDevice) Ready(context.Context) bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// networkDevice dials a raw TCP printer port, e.g. 192.168.1.100:9100.
type networkDevice struct {
	address      string
	dialTimeout  time.Duration
	writeTimeout time.Duration
}

func (d *networkDevice) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.dialTimeout}
	return dialer.DialContext(ctx, "tcp", d.address)
}

func (d *networkDevice) Send(ctx context.Context, data []byte) error {
	conn, err := d.dial(ctx)
	if err != nil {
		return fmt.Errorf("printer: connect %s: %w", d.address, err)
	}
	defer conn.Close()
	_ = conn.SetWriteDeadline(time.Now().Add(d.writeTimeout))
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("printer: write %s: %w", d.address, err)
	}
	return nil
}

func (d *networkDevice) Ready(ctx context.Context) bool {
	conn, err := d.dial(ctx)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// WriterDevice writes every job to an io.Writer.
type WriterDevice struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterDevice returns a device that writes jobs to w.
func NewWriterDevice(w io.Writer) *WriterDevice {
	return &WriterDevice{w: w}
}

func (d *WriterDevice) Send(_ context.Context, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.w.Write(data); err != nil {
		return fmt.Errorf("printer: write: %w", err)
	}
	return nil
}

func (d *WriterDevice) Ready(context.Context) bool { return d.w != nil }

type nullDevice struct{}

func (nullDevice) Send(context.Context, []byte) error { return nil }

func (nullDevice) Ready(context.Context) bool { return false }
