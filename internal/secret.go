package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var (
	// CommandContext allows overriding the command creation for testing
	CommandContext = exec.CommandContext
	// LookPath allows overriding the lookup behavior for testing
	LookPath = exec.LookPath
	// LookupEnv allows overriding environment lookups for testing
	LookupEnv = os.LookupEnv
)

// ResolveSecretReference resolves a secret reference used for API keys.
// Supported forms are 1Password references (op://vault/item/field) and
// environment references (env:NAME). Any other value is returned as is.
// The boolean reports whether value was a reference.
func ResolveSecretReference(ctx context.Context, value string) (string, bool, error) {
	switch {
	case strings.HasPrefix(value, "op://"):
		secret, err := readOnePassword(ctx, value)
		return secret, true, err
	case strings.HasPrefix(value, "env:"):
		name := strings.TrimPrefix(value, "env:")
		if name == "" {
			return "", true, fmt.Errorf("empty environment variable name in %q", value)
		}
		secret, ok := LookupEnv(name)
		if !ok {
			return "", true, fmt.Errorf("environment variable %s is not set", name)
		}
		return strings.TrimSpace(secret), true, nil
	default:
		return value, false, nil
	}
}

func readOnePassword(ctx context.Context, ref string) (string, error) {
	if _, err := LookPath("op"); err != nil {
		return "", fmt.Errorf("1Password CLI (op) not found in PATH: %w", err)
	}

	cmd := CommandContext(ctx, "op", "read", ref)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("failed to read secret from 1Password: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("failed to read secret from 1Password: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}
