package connection

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

const passwordSalt = "lazycrm-keyring-salt-v1"

// fileKeyringPassword derives the passphrase of the file keyring backend
// from the machine and the current user. It is stable across runs and
// differs between machines.
func fileKeyringPassword() (string, error) {
	sum := sha256.Sum256([]byte(machineID() + currentUser() + passwordSalt))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func currentUser() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if u := os.Getenv(key); u != "" {
			return u
		}
	}
	// containers and service accounts often run without USER
	return fmt.Sprintf("uid-%d", os.Getuid())
}

// machineID returns a per-machine identifier, falling back to the hostname
func machineID() string {
	var id string
	switch runtime.GOOS {
	case "linux":
		id = firstFile("/etc/machine-id", "/var/lib/dbus/machine-id")
	case "darwin":
		id = commandField("IOPlatformUUID", "ioreg", "-rd1", "-c", "IOPlatformExpertDevice")
	case "windows":
		id = commandField("", "wmic", "csproduct", "get", "UUID")
	}
	if id == "" {
		id, _ = os.Hostname()
	}
	return id
}

func firstFile(paths ...string) string {
	for _, p := range paths {
		if data, err := os.ReadFile(p); err == nil {
			if id := strings.TrimSpace(string(data)); id != "" {
				return id
			}
		}
	}
	return ""
}

// commandField runs name and extracts a value. With a key, the value is
// taken from the first "key = value" line; otherwise the first line that
// is not the UUID header is used.
func commandField(key, name string, args ...string) string {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if key == "" {
			if line != "" && line != "UUID" {
				return line
			}
			continue
		}
		if !strings.Contains(line, key) {
			continue
		}
		if _, value, ok := strings.Cut(line, "="); ok {
			return strings.Trim(strings.TrimSpace(value), `"`)
		}
	}
	return ""
}
