package api

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/mod/semver"
)

// Health reports server status and version.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	h, err := decodeData[Health](data)
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	return &h, nil
}

// CheckCompatibility verifies the server version is at least minVersion and
// shares its major version. Versions are semver with a leading "v".
func CheckCompatibility(serverVersion, minVersion string) error {
	sv := canonical(serverVersion)
	mv := canonical(minVersion)
	if !semver.IsValid(sv) {
		return fmt.Errorf("server reported invalid version %q", serverVersion)
	}
	if !semver.IsValid(mv) {
		return fmt.Errorf("invalid minimum version %q", minVersion)
	}
	if semver.Major(sv) != semver.Major(mv) {
		return fmt.Errorf("server version %s is incompatible with this client (needs %s.x)", sv, semver.Major(mv))
	}
	if semver.Compare(sv, mv) < 0 {
		return fmt.Errorf("server version %s is older than required %s", sv, mv)
	}
	return nil
}

func canonical(v string) string {
	if v != "" && v[0] != 'v' {
		v = "v" + v
	}
	return semver.Canonical(v)
}
