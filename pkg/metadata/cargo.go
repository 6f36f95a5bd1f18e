package metadata

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// bevyPrefix matches bevy itself and the bevy_* sub-crates; the first
// dependency with this prefix, in manifest order, decides the version.
const bevyPrefix = "bevy"

// nonStandardLicense is reported for manifests that point at a license
// file instead of naming a license, matching how crates.io flags them.
const nonStandardLicense = "non-standard"

type cargoManifest struct {
	Package struct {
		License     string `toml:"license"`
		LicenseFile string `toml:"license-file"`
	} `toml:"package"`
	Dependencies map[string]toml.Primitive `toml:"dependencies"`
}

type cargoDependency struct {
	Version string `toml:"version"`
	Git     string `toml:"git"`
	Branch  string `toml:"branch"`
}

// fromCargoManifest derives metadata from Cargo.toml text fetched from a
// repository backend.
func fromCargoManifest(content string) (*Metadata, error) {
	var manifest cargoManifest
	md, err := toml.Decode(content, &manifest)
	if err != nil {
		return nil, fmt.Errorf("parse Cargo.toml: %w", err)
	}

	version, err := bevyVersion(md, manifest.Dependencies)
	if err != nil {
		return nil, err
	}

	return &Metadata{
		License:     manifestLicense(manifest),
		BevyVersion: version,
	}, nil
}

func manifestLicense(manifest cargoManifest) string {
	if manifest.Package.License != "" {
		return manifest.Package.License
	}
	if manifest.Package.LicenseFile != "" {
		return nonStandardLicense
	}
	return ""
}

// bevyVersion finds the first bevy* dependency in manifest order and
// reports its version. Git dependencies without a version collapse to
// "main" for the main branch and "git" for everything else.
func bevyVersion(md toml.MetaData, deps map[string]toml.Primitive) (string, error) {
	for _, key := range md.Keys() {
		if len(key) != 2 || key[0] != "dependencies" || !strings.HasPrefix(key[1], bevyPrefix) {
			continue
		}
		prim, ok := deps[key[1]]
		if !ok {
			continue
		}

		// A dependency is either a plain version string or a detailed
		// table.
		var version string
		if md.PrimitiveDecode(prim, &version) == nil {
			return version, nil
		}

		var detail cargoDependency
		if err := md.PrimitiveDecode(prim, &detail); err != nil {
			return "", fmt.Errorf("parse dependency %s: %w", key[1], err)
		}
		switch {
		case detail.Version != "":
			return detail.Version, nil
		case detail.Git != "" && detail.Branch == "main":
			return "main", nil
		case detail.Git != "":
			return "git", nil
		default:
			return "", nil
		}
	}
	return "", nil
}
