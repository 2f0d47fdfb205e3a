package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"
	"sync"
)

var (
	instanceOnce sync.Once
	instanceID   string
)

// InstanceID names this server process in traces and health checks. It
// hashes the first active MAC address so the id survives restarts on the
// same machine, and falls back to the hostname.
func InstanceID() string {
	instanceOnce.Do(func() {
		instanceID = deviceID(net.Interfaces, os.Hostname)
	})
	return instanceID
}

func deviceID(interfaces func() ([]net.Interface, error), hostname func() (string, error)) string {
	var source string
	if ifs, err := interfaces(); err == nil {
		for _, i := range ifs {
			// first active physical interface
			if i.Flags&net.FlagUp != 0 && i.Flags&net.FlagLoopback == 0 && len(i.HardwareAddr) > 0 {
				source = i.HardwareAddr.String()
				break
			}
		}
	}
	if source == "" {
		if h, err := hostname(); err == nil && h != "" {
			source = h
		}
	}
	if source == "" {
		return "REDA-UNKNOWN"
	}

	hash := sha256.Sum256([]byte(source + "REDA-POS"))
	return "REDA-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}
