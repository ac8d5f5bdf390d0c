package config

import (
	"fmt"
	"os"
)

func Template() string {
	return linkTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(linkTemplate), 0o600)
}

const linkTemplate = `node = "mavctl"

[link]
version = 2
system_id = 255
component_id = 190
link_id = 0
# 64 hex digits, or set passphrase instead. Empty disables signing.
key = ""
passphrase = ""
accept_unsigned = false
allow_unknown = false
# Optional TOML dialect merged over the built-in common messages.
dialect = ""

[nats]
url = "nats://127.0.0.1:4222"
subject = "mavlink.raw"
max_attempts = 3

[status]
addr = "127.0.0.1:9180"
cors_origins = ["http://localhost:3000"]
`
