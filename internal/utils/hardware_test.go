package utils

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceIDFromMAC(t *testing.T) {
	mac, _ := net.ParseMAC("00:1a:2b:3c:4d:5e")
	ifs := func() ([]net.Interface, error) {
		return []net.Interface{
			{Name: "lo", Flags: net.FlagUp | net.FlagLoopback},
			{Name: "eth0", Flags: net.FlagUp, HardwareAddr: mac},
		}, nil
	}
	host := func() (string, error) { return "till-1", nil }

	id := deviceID(ifs, host)
	assert.Regexp(t, `^REDA-[0-9A-F]{8}$`, id)
	assert.Equal(t, id, deviceID(ifs, host))
	assert.NotEqual(t, id, deviceID(func() ([]net.Interface, error) { return nil, nil }, host))
}

func TestDeviceIDFallbacks(t *testing.T) {
	noIfs := func() ([]net.Interface, error) { return nil, errors.New("denied") }

	assert.Regexp(t, `^REDA-[0-9A-F]{8}$`, deviceID(noIfs, func() (string, error) { return "till-1", nil }))
	assert.Equal(t, "REDA-UNKNOWN", deviceID(noIfs, func() (string, error) { return "", errors.New("no host") }))
	assert.NotEmpty(t, InstanceID())
}
